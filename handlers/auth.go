package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	mw "mogitrack/middleware"
	"mogitrack/models"
)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func validateCredentials(creds *credentials) error {
	creds.Username = strings.TrimSpace(creds.Username)
	if creds.Username == "" {
		return errors.New("username is required")
	}
	if strings.TrimSpace(creds.Password) == "" {
		return errors.New("password is required")
	}
	return nil
}

// Signup registers a new user and signs them in.
func (h *Handler) Signup(c echo.Context) error {
	var creds credentials
	if err := c.Bind(&creds); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := validateCredentials(&creds); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), bcrypt.DefaultCost)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	user := &models.User{Username: creds.Username, Password: string(hash)}
	if _, err := h.db.NewInsert().Model(user).Exec(c.Request().Context()); err != nil {
		if isUniqueViolation(err) {
			return echo.NewHTTPError(http.StatusConflict, "username already taken")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return h.tokenResponse(c, user)
}

// Signin validates credentials and returns a JWT token valid for 30 days.
func (h *Handler) Signin(c echo.Context) error {
	var creds credentials
	if err := c.Bind(&creds); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	creds.Username = strings.TrimSpace(creds.Username)

	user := &models.User{}
	err := h.db.NewSelect().Model(user).
		Where("username = ?", creds.Username).
		Scan(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "incorrect username or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(creds.Password)); err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	return h.tokenResponse(c, user)
}

func (h *Handler) tokenResponse(c echo.Context, user *models.User) error {
	expiresAt := time.Now().AddDate(0, 0, 30)
	claims := &mw.Claims{
		UserID:   user.ID,
		Username: user.Username,
		UserHash: mw.UserHashFromUsername(user.Username, h.JWTKey),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(h.JWTKey)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]string{"token": tokenString})
}

// isAdminUser gates maintenance endpoints behind the configured admin list.
func (h *Handler) isAdminUser(username string) bool {
	normalized := strings.ToLower(strings.TrimSpace(username))
	for _, admin := range h.AdminUsers {
		if normalized == strings.ToLower(strings.TrimSpace(admin)) {
			return true
		}
	}
	return false
}

func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "unique constraint")
}
