package notifier

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/uptimer-dev/uptimer/internal/domain/notification"
)

func TestCompose(t *testing.T) {
	locals := notification.Locals{
		AppName: "Edge",
		AppLink: "http://localhost:3000",
		AppIcon: "http://localhost:3000/icon.svg",
	}

	subject, body := compose(notification.KindFailure, locals)
	require.Equal(t, "Edge is down", subject)
	require.Contains(t, body, "Edge")
	require.Contains(t, body, locals.AppLink)
	require.Contains(t, body, locals.AppIcon)

	subject, body = compose(notification.KindRecovery, locals)
	require.Equal(t, "Edge is back up", subject)
	require.Contains(t, body, "recovered")
}

func TestCompose_NoIconOmitsImage(t *testing.T) {
	locals := notification.Locals{AppName: "Edge", AppLink: "http://localhost:3000"}
	_, body := compose(notification.KindFailure, locals)
	require.NotContains(t, body, "<img")
}

func TestHost(t *testing.T) {
	require.Equal(t, "smtp.example.com", host("smtp.example.com:587"))
	require.Equal(t, "localhost", host("localhost"))
}

func TestNew_AuthOnlyWithCredentials(t *testing.T) {
	m := New(SMTPConfig{Addr: "localhost:1025", From: "alerts@uptimer.local"})
	require.Nil(t, m.auth)

	m = New(SMTPConfig{Addr: "localhost:587", User: "u", Password: "p"})
	require.NotNil(t, m.auth)
}
