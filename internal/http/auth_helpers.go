package http

import (
	"github.com/gin-gonic/gin"

	"github.com/traxys/bouquineur/internal/auth"
	"github.com/traxys/bouquineur/internal/config"
)

// AuthTemplateData holds authentication info for templates.
type AuthTemplateData struct {
	Enabled   bool
	LoggedIn  bool
	Username  string
	CSRFToken string
}

// AuthContextMiddleware injects authentication data into the Gin context
// so page handlers can expose it to templates via .Auth.
func AuthContextMiddleware(authMode config.AuthMode) gin.HandlerFunc {
	authEnabled := authMode == config.AuthModeLocal

	return func(c *gin.Context) {
		authData := AuthTemplateData{
			Enabled:   authEnabled,
			CSRFToken: csrfToken(c),
		}

		if authEnabled {
			if username, ok := c.Get(auth.ContextKeyUsername); ok {
				authData.LoggedIn = true
				authData.Username, _ = username.(string)
			}
		}

		c.Set("auth_template_data", authData)
		c.Next()
	}
}

// GetAuthTemplateData retrieves auth data from context for use in templates.
func GetAuthTemplateData(c *gin.Context) AuthTemplateData {
	if data, exists := c.Get("auth_template_data"); exists {
		if authData, ok := data.(AuthTemplateData); ok {
			return authData
		}
	}
	return AuthTemplateData{}
}
