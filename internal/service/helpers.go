package service

import (
	"log/slog"
	"time"

	"github.com/openpost/composer/internal/compose"
)

func GetExpiresAt(expiresIn int) time.Time {
	return time.Now().Add(time.Duration(expiresIn) * time.Second)
}

// validateLinkedAccount gates what a platform API handed back before it is
// stored as an account. Platform, username and access token are required; a
// response missing any of them must not become a row.
func validateLinkedAccount(platform, username, accessToken string) error {
	var err error
	switch {
	case platform == "":
		err = compose.NewValidationError("platform", "platform is required")
	case username == "":
		err = compose.NewValidationError("username", "account username is required")
	case accessToken == "":
		err = compose.NewValidationError("access_token", "access token is required")
	}
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
