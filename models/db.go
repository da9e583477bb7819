package models

import (
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// InitDB 打开 MySQL 连接并包装为 GORM，随后执行 doc/sql/BrandScene.sql 建表。
// 建表语句执行失败只记录，不阻塞启动（表可能已存在）。
func InitDB(dsn string) (*gorm.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("打开数据库失败: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	gdb, err := gorm.Open(mysql.New(mysql.Config{Conn: db}), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("GORM 初始化失败: %w", err)
	}

	if err := execSchemaFile(db, "doc/sql/BrandScene.sql"); err != nil {
		fmt.Printf("执行建表语句失败（跳过）: %v\n", err)
	}
	return gdb, nil
}

func execSchemaFile(db *sql.DB, path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	for _, s := range strings.Split(string(b), ";") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, err := db.Exec(s); err != nil {
			return fmt.Errorf("%w; sql: %s", err, s)
		}
	}
	return nil
}

// DemoUserID 鉴权接入前的占位用户
const DemoUserID = "demo-user-id"

// EnsureDemoUser 启动时保证占位用户存在
func EnsureDemoUser(db *gorm.DB) error {
	u := User{ID: DemoUserID, Email: "demo@example.com", Name: "Demo User"}
	return db.Where(User{ID: DemoUserID}).FirstOrCreate(&u).Error
}

// AutoMigrate 按实体结构建表，测试环境（sqlite）使用
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Project{},
		&Campaign{},
		&ResearchData{},
		&Script{},
		&Scene{},
		&ImageVariation{},
		&VideoClip{},
		&AudioTrack{},
		&Video{},
		&Transition{},
	)
}
