package storage

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"octopanel/internal/domain"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type Server struct {
	ID                     string `gorm:"primaryKey"`
	UUID                   string `gorm:"uniqueIndex"`
	Name                   string
	Description            string
	CPULimit               int
	MemoryLimit            int64
	DiskLimit              int64
	IsTransferring         bool
	IsInstalling           bool
	IsNodeUnderMaintenance bool
	IsSuspended            bool
	Startup                string
	StopCommand            string
	Allocations            []Allocation `gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt              time.Time
}

type Allocation struct {
	ID        uint `gorm:"primaryKey"`
	ServerID  string
	IP        string
	Port      int `gorm:"uniqueIndex"`
	Alias     string
	IsDefault bool
}

type Setting struct {
	Key   string `gorm:"primaryKey"`
	Value string
}

type User struct {
	ID        string `gorm:"primaryKey"`
	Username  string `gorm:"uniqueIndex"`
	Password  string
	RootAdmin bool
}

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(path string) (*GormStore, error) {
	newLogger := gormlogger.New(
		log.New(os.Stdout, "", log.LstdFlags),
		gormlogger.Config{
			IgnoreRecordNotFoundError: true,
			LogLevel:                  gormlogger.Error,
		},
	)

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: newLogger})
	if err != nil {
		return nil, err
	}

	err = db.AutoMigrate(&Server{}, &Allocation{}, &Setting{}, &User{})
	if err != nil {
		return nil, fmt.Errorf("error migrating database: %w", err)
	}

	store := &GormStore{db: db}

	if err := store.initDefaultSettings(); err != nil {
		return nil, fmt.Errorf("error initializing settings: %w", err)
	}

	return store, nil
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *GormStore) initDefaultSettings() error {
	defaults := map[string]string{
		domain.KeyPortRangeStart: "25565",
		domain.KeyPortRangeEnd:   "25600",
	}

	for key, value := range defaults {
		var setting Setting
		result := s.db.First(&setting, "key = ?", key)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				if err := s.db.Create(&Setting{Key: key, Value: value}).Error; err != nil {
					return err
				}
			} else {
				return result.Error
			}
		}
	}

	return nil
}

func (s *GormStore) SaveServer(srv *domain.Server) error {
	row := &Server{
		ID:                     srv.ID,
		UUID:                   srv.UUID,
		Name:                   srv.Name,
		Description:            srv.Description,
		CPULimit:               srv.Limits.CPU,
		MemoryLimit:            srv.Limits.Memory,
		DiskLimit:              srv.Limits.Disk,
		IsTransferring:         srv.IsTransferring,
		IsInstalling:           srv.IsInstalling,
		IsNodeUnderMaintenance: srv.IsNodeUnderMaintenance,
		IsSuspended:            srv.IsSuspended,
		Startup:                srv.Startup,
		StopCommand:            srv.StopCommand,
		CreatedAt:              srv.CreatedAt,
	}
	for _, a := range srv.Allocations {
		row.Allocations = append(row.Allocations, Allocation{
			IP:        a.IP,
			Port:      a.Port,
			Alias:     a.Alias,
			IsDefault: a.IsDefault,
		})
	}

	return s.db.Create(row).Error
}

func (s *GormStore) ListServers() ([]domain.Server, error) {
	var rows []Server
	if err := s.db.Preload("Allocations").Order("created_at").Find(&rows).Error; err != nil {
		return nil, err
	}

	servers := make([]domain.Server, 0, len(rows))
	for _, row := range rows {
		servers = append(servers, toDomainServer(row))
	}
	return servers, nil
}

// GetServerByID accepts either the short identifier or the full UUID.
// A missing server is reported as (nil, nil).
func (s *GormStore) GetServerByID(id string) (*domain.Server, error) {
	var row Server
	result := s.db.Preload("Allocations").First(&row, "id = ? OR uuid = ?", id, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("error querying server: %w", result.Error)
	}

	srv := toDomainServer(row)
	return &srv, nil
}

func (s *GormStore) DeleteServer(id string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&Allocation{}, "server_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&Server{}, "id = ?", id).Error
	})
}

func (s *GormStore) SetSuspended(id string, suspended bool) error {
	result := s.db.Model(&Server{}).Where("id = ?", id).Update("is_suspended", suspended)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrServerNotFound
	}
	return nil
}

func (s *GormStore) UsedPorts() (map[int]bool, error) {
	var ports []int
	if err := s.db.Model(&Allocation{}).Pluck("port", &ports).Error; err != nil {
		return nil, err
	}
	used := make(map[int]bool, len(ports))
	for _, p := range ports {
		used[p] = true
	}
	return used, nil
}

func toDomainServer(row Server) domain.Server {
	srv := domain.Server{
		ID:          row.ID,
		UUID:        row.UUID,
		Name:        row.Name,
		Description: row.Description,
		Limits: domain.Limits{
			CPU:    row.CPULimit,
			Memory: row.MemoryLimit,
			Disk:   row.DiskLimit,
		},
		Allocations:            make([]domain.Allocation, 0, len(row.Allocations)),
		IsTransferring:         row.IsTransferring,
		IsInstalling:           row.IsInstalling,
		IsNodeUnderMaintenance: row.IsNodeUnderMaintenance,
		IsSuspended:            row.IsSuspended,
		Startup:                row.Startup,
		StopCommand:            row.StopCommand,
		CreatedAt:              row.CreatedAt,
	}
	for _, a := range row.Allocations {
		srv.Allocations = append(srv.Allocations, domain.Allocation{
			IP:        a.IP,
			Port:      a.Port,
			Alias:     a.Alias,
			IsDefault: a.IsDefault,
		})
	}
	return srv
}

func (s *GormStore) CreateUser(user *domain.User) error {
	return s.db.Create(&User{
		ID:        user.ID,
		Username:  user.Username,
		Password:  user.Password,
		RootAdmin: user.RootAdmin,
	}).Error
}

func (s *GormStore) GetUserByUsername(username string) (*domain.User, error) {
	return s.findUser("username = ?", username)
}

func (s *GormStore) GetUserByID(id string) (*domain.User, error) {
	return s.findUser("id = ?", id)
}

func (s *GormStore) findUser(query string, arg string) (*domain.User, error) {
	var row User
	result := s.db.First(&row, query, arg)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("error querying user: %w", result.Error)
	}
	return &domain.User{
		ID:        row.ID,
		Username:  row.Username,
		Password:  row.Password,
		RootAdmin: row.RootAdmin,
	}, nil
}

func (s *GormStore) CountUsers() (int64, error) {
	var count int64
	err := s.db.Model(&User{}).Count(&count).Error
	return count, err
}

func (s *GormStore) GetSetting(key string) (string, error) {
	var setting Setting
	result := s.db.First(&setting, "key = ?", key)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("%w: %s", domain.ErrSettingNotFound, key)
		}
		return "", result.Error
	}
	return setting.Value, nil
}

func (s *GormStore) SetSetting(key string, value string) error {
	var setting Setting
	result := s.db.First(&setting, "key = ?", key)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return s.db.Create(&Setting{Key: key, Value: value}).Error
		}
		return result.Error
	}

	return s.db.Model(&setting).Update("value", value).Error
}

func (s *GormStore) AllSettings() (map[string]string, error) {
	var settings []Setting
	if err := s.db.Find(&settings).Error; err != nil {
		return nil, err
	}
	out := make(map[string]string, len(settings))
	for _, st := range settings {
		out[st.Key] = st.Value
	}
	return out, nil
}

func (s *GormStore) GetPortRange() (int, int, error) {
	startStr, err := s.GetSetting(domain.KeyPortRangeStart)
	if err != nil {
		return 0, 0, err
	}

	endStr, err := s.GetSetting(domain.KeyPortRangeEnd)
	if err != nil {
		return 0, 0, err
	}

	start, err := strconv.Atoi(startStr)
	if err != nil {
		return 0, 0, fmt.Errorf("error parsing port range start: %w", err)
	}

	end, err := strconv.Atoi(endStr)
	if err != nil {
		return 0, 0, fmt.Errorf("error parsing port range end: %w", err)
	}

	return start, end, nil
}

func (s *GormStore) SetPortRange(start int, end int) error {
	if start <= 0 || end <= 0 || start > end || end > 65535 {
		return fmt.Errorf("invalid port range: %d-%d", start, end)
	}

	if err := s.SetSetting(domain.KeyPortRangeStart, strconv.Itoa(start)); err != nil {
		return err
	}

	return s.SetSetting(domain.KeyPortRangeEnd, strconv.Itoa(end))
}
