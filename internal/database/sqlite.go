package database

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// OpenSQLite ouvre une base SQLite avec les clés étrangères activées
func OpenSQLite(path string, cfg *gorm.Config) (*gorm.DB, error) {
	return gorm.Open(sqlite.Open(path+"?_foreign_keys=on"), cfg)
}

// OpenInMemory ouvre une base SQLite en mémoire déjà migrée.
// Chaque appel obtient une base distincte partagée entre les connexions du pool.
func OpenInMemory() (*gorm.DB, error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Discard})
	if err != nil {
		return nil, err
	}
	if err := AutoMigrate(db); err != nil {
		return nil, err
	}
	return db, nil
}
