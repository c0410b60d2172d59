package voice

import (
	"errors"

	"github.com/foxseedlab/kissandost/internal/language"
	"github.com/foxseedlab/kissandost/internal/transcriber"
)

const (
	messagePermissionDeniedEnglish = "Microphone access denied. Please allow permission."
	messagePermissionDeniedUrdu    = "مائیکروفون کی اجازت نہیں دی گئی۔"
	messageBlockedEnglish          = "Microphone blocked. Check your audio settings."
	messageBlockedUrdu             = "مائیکروفون بلاک ہے۔"
	messageNetwork                 = "Network error."
	messageOtherPrefix             = "Error: "
	messageStartFailed             = "Failed to start microphone."
)

// errorMessage returns the notification text for a capture failure, or ""
// when the failure is not surfaced.
func errorMessage(err error, lang language.Language) string {
	var other *transcriber.OtherError
	switch {
	case errors.Is(err, transcriber.ErrNoSpeech):
		return ""
	case errors.Is(err, transcriber.ErrPermissionDenied):
		if lang == language.English {
			return messagePermissionDeniedEnglish
		}
		return messagePermissionDeniedUrdu
	case errors.Is(err, transcriber.ErrBlocked):
		if lang == language.English {
			return messageBlockedEnglish
		}
		return messageBlockedUrdu
	case errors.Is(err, transcriber.ErrNetwork):
		return messageNetwork
	case errors.As(err, &other):
		return messageOtherPrefix + other.Code
	default:
		return messageOtherPrefix + err.Error()
	}
}
