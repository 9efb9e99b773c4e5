package mail

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestService_send(t *testing.T) {
	svc := New()
	var output Output
	err := svc.send(context.Background(), &Input{To: "a@x.com", Subject: "Re: numbers"}, &output)
	assert.NoError(t, err)
	assert.NotEmpty(t, output.MessageID)
	assert.True(t, strings.Contains(output.Status, "a@x.com"))
}

func TestService_send_missingRecipient(t *testing.T) {
	svc := New()
	var output Output
	err := svc.send(context.Background(), &Input{Body: "hello"}, &output)
	assert.Error(t, err)
}

func TestService_methodLookup(t *testing.T) {
	svc := New()
	_, err := svc.Method("send")
	assert.NoError(t, err)
	_, err = svc.Method("receive")
	assert.Error(t, err)
}
