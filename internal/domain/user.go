package domain

type User struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Password  string `json:"-"`
	RootAdmin bool   `json:"root_admin"`
}
