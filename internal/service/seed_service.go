package service

import (
	"go-farm-ledger/internal/model"
	"go-farm-ledger/internal/repository"

	"go.uber.org/zap"
)

// SeedAccess creates default privileges and roles, assigns privileges to
// roles that have none, and creates the master admin when adminEmail is
// unknown. Failures are logged and seeding continues.
func SeedAccess(privRepo repository.PrivilegeRepository, roleRepo repository.RoleRepository, userRepo repository.UserRepository, adminEmail, adminPassword string, log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}

	if err := privRepo.SeedDefaults(); err != nil {
		log.Warn("seed_privileges_failed", zap.Error(err))
	}
	if err := roleRepo.SeedDefaults(); err != nil {
		log.Warn("seed_roles_failed", zap.Error(err))
	}

	allPrivileges, err := privRepo.FindAll()
	if err != nil {
		log.Warn("seed_load_privileges_failed", zap.Error(err))
		return
	}

	masterRole, err := roleRepo.FindByCode(model.RoleMasterAdmin)
	if err == nil && len(masterRole.Privileges) == 0 {
		if err := roleRepo.AssignPrivileges(masterRole, allPrivileges); err != nil {
			log.Warn("seed_assign_privileges_failed", zap.String("role", model.RoleMasterAdmin), zap.Error(err))
		} else {
			log.Info("role_privileges_assigned", zap.String("role", model.RoleMasterAdmin), zap.Int("privileges", len(allPrivileges)))
		}
	}

	adminRole, err := roleRepo.FindByCode(model.RoleAdmin)
	if err == nil && len(adminRole.Privileges) == 0 {
		limited := model.AdminPrivileges(allPrivileges)
		if err := roleRepo.AssignPrivileges(adminRole, limited); err != nil {
			log.Warn("seed_assign_privileges_failed", zap.String("role", model.RoleAdmin), zap.Error(err))
		} else {
			log.Info("role_privileges_assigned", zap.String("role", model.RoleAdmin), zap.Int("privileges", len(limited)))
		}
	}

	if _, err := userRepo.FindByEmail(adminEmail); err == nil {
		return
	}
	if masterRole == nil {
		log.Warn("seed_admin_skipped", zap.String("reason", "master role missing"))
		return
	}

	admin := &model.User{
		Email:      adminEmail,
		FullName:   "Master Administrator",
		RoleID:     &masterRole.ID,
		IsActive:   true,
		Privileges: masterRole.Privileges,
	}
	admin.CreatedBy = SystemActor.ID
	admin.UpdatedBy = SystemActor.ID

	if err := admin.SetPassword(adminPassword); err != nil {
		log.Warn("seed_admin_hash_failed", zap.Error(err))
		return
	}
	if err := userRepo.Create(admin); err != nil {
		log.Warn("seed_admin_failed", zap.Error(err))
		return
	}
	log.Info("admin_user_created", zap.String("email", adminEmail), zap.String("role", model.RoleMasterAdmin))
}
