package controllers

import (
	"Arcadia/middleware"
	models "Arcadia/models/postgres"
	redis_models "Arcadia/models/redis"
	"Arcadia/services/redis"
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// @Summary Endpoint just pings the server
// @Description Returns a basic message
// @Tags test
// @Produce json
// @Success 200 {object} object{message=string}
// @Router /ping [get]
func Ping(c *gin.Context) {
	c.JSON(200, gin.H{"message": "pong"})
}

// userFromJWT resolves the authenticated account behind the bearer token.
// Responds 401 itself when the token or user is missing.
func userFromJWT(c *gin.Context, db *gorm.DB) (*models.User, error) {
	email, err := middleware.JWT_decoder(c)
	if err != nil {
		return nil, err
	}
	var user models.User
	if err := db.Where("email = ?", email).First(&user).Error; err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User not found: invalid email"})
		return nil, err
	}
	return &user, nil
}

// @Summary Creates a new user account
// @Description Registers an account plus its game profile and returns a JWT
// @Tags users
// @Accept x-www-form-urlencoded
// @Produce json
// @Param email formData string true "Account email"
// @Param username formData string true "Public username"
// @Param password formData string true "Password"
// @Success 200 {object} object{token=string,username=string}
// @Failure 400 {object} object{error=string}
// @Failure 409 {object} object{error=string}
// @Failure 500 {object} object{error=string}
// @Router /signup [post]
func SignUp(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		email := strings.TrimSpace(c.PostForm("email"))
		username := strings.TrimSpace(c.PostForm("username"))
		password := c.PostForm("password")

		//Minimum input sanitizing
		if email == "" || username == "" || strings.TrimSpace(password) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Parameters can't be empty"})
			return
		}

		var existing models.User
		if err := db.Where("email = ? OR profile_username = ?", email, username).
			First(&existing).Error; err == nil {
			c.JSON(http.StatusConflict, gin.H{"error": "Email or username already taken"})
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error hashing password"})
			return
		}

		err = db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&models.GameProfile{Username: username}).Error; err != nil {
				return err
			}
			return tx.Create(&models.User{
				Email:           email,
				ProfileUsername: username,
				PasswordHash:    string(hash),
			}).Error
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error creating user"})
			return
		}

		token, err := middleware.GenerateToken(email)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error generating token"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"token": token, "username": username})
	}
}

// @Summary Logs a user in
// @Description Checks credentials and returns a JWT for the socket and REST surfaces
// @Tags users
// @Accept x-www-form-urlencoded
// @Produce json
// @Param email formData string true "Account email"
// @Param password formData string true "Password"
// @Success 200 {object} object{token=string,username=string}
// @Failure 400 {object} object{error=string}
// @Failure 401 {object} object{error=string}
// @Router /login [post]
func Login(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		email := c.PostForm("email")
		password := c.PostForm("password")

		//Minimum input sanitizing
		if strings.TrimSpace(email) == "" || strings.TrimSpace(password) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Parameters can't be empty"})
			return
		}

		var user models.User
		if err := db.Where("email = ?", email).First(&user).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password!"})
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password!"})
			return
		}

		token, err := middleware.GenerateToken(user.Email)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error generating token"})
			return
		}

		session.Set("Email", user.Email)
		if err := session.Save(); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "No session!"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"token": token, "username": user.ProfileUsername})
	}
}

// Logout from server, deletes the session associated with the Email key
// @Summary Logs a user out
// @Description Deletes the cookie session. The JWT simply expires
// @Tags users
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Success 200 {object} object{message=string}
// @Failure 400 {object} object{error=string}
// @Router /auth/logout [delete]
// @Security ApiKeyAuth
func Logout(c *gin.Context) {
	session := sessions.Default(c)
	user := session.Get("Email")
	// There is no session for the user, won't delete nothing
	if user == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid session token"})
		return
	}

	session.Delete("Email")
	if err := session.Save(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Successfully logged out"})
}

// @Summary Gives public info of a user
// @Description Returns the public game profile of the given username, with their live presence
// @Tags users
// @Produce json
// @Param username path string true "Username wanted"
// @Success 200 {object} object{username=string,icon=integer,total_score=integer,games_won=integer}
// @Failure 404 {object} object{error=string}
// @Router /users/{username} [get]
func GetUserPublicInfo(db *gorm.DB, redisClient *redis.RedisClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		username := c.Param("username")

		var profile models.GameProfile
		if err := db.Where("username = ?", username).First(&profile).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			}
			return
		}

		status := redis_models.StatusOffline
		if presence, err := redisClient.GetPlayerPresence(username); err == nil && presence != nil {
			status = presence.Status
		}

		c.JSON(http.StatusOK, gin.H{
			"username":    profile.Username,
			"icon":        profile.UserIcon,
			"total_score": profile.TotalScore,
			"games_won":   profile.GamesWon,
			"in_game":     profile.IsInAGame,
			"status":      status,
		})
	}
}

// @Summary Gives private info of the authenticated user
// @Description Returns the account plus profile of whoever owns the token
// @Tags users
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Success 200 {object} object{email=string,username=string}
// @Failure 401 {object} object{error=string}
// @Router /auth/me [get]
// @Security ApiKeyAuth
func GetUserPrivateInfo(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := userFromJWT(c, db)
		if err != nil {
			return
		}

		var profile models.GameProfile
		if err := db.Where("username = ?", user.ProfileUsername).First(&profile).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error loading profile"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"email":        user.Email,
			"username":     user.ProfileUsername,
			"full_name":    user.FullName,
			"member_since": user.MemberSince,
			"icon":         profile.UserIcon,
			"total_score":  profile.TotalScore,
			"games_won":    profile.GamesWon,
		})
	}
}
