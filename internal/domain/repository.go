package domain

type ServerRepository interface {
	SaveServer(srv *Server) error
	ListServers() ([]Server, error)
	GetServerByID(id string) (*Server, error)
	DeleteServer(id string) error
	SetSuspended(id string, suspended bool) error
}

type UserRepository interface {
	CreateUser(user *User) error
	GetUserByUsername(username string) (*User, error)
	GetUserByID(id string) (*User, error)
	CountUsers() (int64, error)
}

type SettingRepository interface {
	GetSetting(key string) (string, error)
	SetSetting(key string, value string) error
	AllSettings() (map[string]string, error)
	GetPortRange() (int, int, error)
	SetPortRange(start int, end int) error
}

type Repository interface {
	ServerRepository
	UserRepository
	SettingRepository
}
