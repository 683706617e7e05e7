package services

import (
	"errors"
	"fmt"
	"net/textproto"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifySMTPError(t *testing.T) {
	perm := classifySMTPError(fmt.Errorf("rcpt: %w", &textproto.Error{Code: 550, Msg: "no such user"}))
	assert.True(t, isPermanent(perm))

	temp := classifySMTPError(fmt.Errorf("rcpt: %w", &textproto.Error{Code: 451, Msg: "try later"}))
	assert.False(t, isPermanent(temp))

	assert.False(t, isPermanent(classifySMTPError(errors.New("eof"))))
}

func TestBuildMessage(t *testing.T) {
	tr := NewSMTPTransport("smtp.gmail.com", 587, "wellnest@gmail.com", "pw", "WellNest")
	raw := tr.buildMessage(Message{To: "a@example.com", Subject: ReminderSubject, Body: "line1\nline2"})

	assert.Contains(t, raw, "From: WellNest <wellnest@gmail.com>\r\n")
	assert.Contains(t, raw, "To: a@example.com\r\n")
	assert.Contains(t, raw, "Subject: =?utf-8?q?")
	assert.Contains(t, raw, "Content-Type: text/plain; charset=UTF-8\r\n")
	assert.True(t, strings.HasSuffix(raw, "\r\n\r\nline1\r\nline2\r\n"))
}

func TestEncodeHeader_ASCIIUnchanged(t *testing.T) {
	assert.Equal(t, "Medicine Reminder", encodeHeader("Medicine Reminder"))
}
