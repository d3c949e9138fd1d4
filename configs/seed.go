package configs

import (
	"log"

	"golang.org/x/crypto/bcrypt"

	"github.com/qdelaplebe-lgtm/clean-mboka-backend/entity"
)

// First-run admin account
func SeedAdmin() error {
	db := DB()
	phone := getEnv("ADMIN_PHONE", "")
	pass := getEnv("ADMIN_PASSWORD", "")
	if phone == "" || pass == "" {
		log.Println("skip seeding admin: missing ADMIN_PHONE/ADMIN_PASSWORD")
		return nil
	}

	var count int64
	db.Model(&entity.User{}).Where("phone = ?", phone).Count(&count)
	if count > 0 {
		log.Println("admin already exists:", phone)
		return nil
	}

	hash, _ := bcrypt.GenerateFromPassword([]byte(pass), bcrypt.DefaultCost)
	admin := entity.User{
		Phone:    phone,
		Password: string(hash),
		FullName: "Admin Seed",
		Role:     entity.RoleAdmin,
		Commune:  getEnv("ADMIN_COMMUNE", "Gombe"),
	}
	return db.Create(&admin).Error
}
