package mail

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDisabledMailerReturnsSentinel(t *testing.T) {
	mailer, err := NewSMTPMailer(SMTPSettings{Enabled: false})
	require.NoError(t, err)

	err = mailer.Send(context.Background(), Message{To: []string{"a@example.com"}})
	require.ErrorIs(t, err, ErrSMTPDisabled)
}

func TestEnabledMailerRequiresHostAndPort(t *testing.T) {
	_, err := NewSMTPMailer(SMTPSettings{Enabled: true, Port: 25})
	require.Error(t, err)

	_, err = NewSMTPMailer(SMTPSettings{Enabled: true, Host: "smtp.example.com"})
	require.Error(t, err)

	_, err = NewSMTPMailer(SMTPSettings{Enabled: true, Host: "smtp.example.com", Port: 25, Timeout: time.Second})
	require.NoError(t, err)
}

func TestUniqueAddresses(t *testing.T) {
	got := uniqueAddresses([]string{" a@example.com", "a@example.com", "", "b@example.com"})
	require.Equal(t, []string{"a@example.com", "b@example.com"}, got)
}

func TestFormatMessageEscapesHeaders(t *testing.T) {
	msg := formatMessage("from@example.com", []string{"to@example.com"}, "subject\r\ninjected", "body")
	require.Contains(t, msg, "Subject: subject injected")
	require.Contains(t, msg, "\r\n\r\nbody")
}
