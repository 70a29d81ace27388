package core

// context.go

// CtxKey — тип ключей для context.Context (чтобы избежать коллизий строк)
type CtxKey string

const (
	// CtxUser — ключ для текущего пользователя (кладётся в middleware Protect/IsLoggedIn)
	CtxUser CtxKey = "user"
)
