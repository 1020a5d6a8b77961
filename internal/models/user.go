package models

import "time"

// User представляет пользователя на сервере
type User struct {
	ID           string    `json:"id"`            // UUID пользователя
	Username     string    `json:"username"`      // уникальное имя пользователя
	PasswordHash string    `json:"-"`             // bcrypt хеш пароля, никогда не сериализуется
	CreatedAt    time.Time `json:"created_at"`    // время регистрации
	LastLoginAt  time.Time `json:"last_login_at"` // время последнего входа
}

// RefreshToken представляет выданный refresh token
type RefreshToken struct {
	Token     string    `json:"token"`      // случайный токен (base64)
	UserID    string    `json:"user_id"`    // владелец токена
	ExpiresAt time.Time `json:"expires_at"` // срок действия
	CreatedAt time.Time `json:"created_at"` // время выдачи
}
