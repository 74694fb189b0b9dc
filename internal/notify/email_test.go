package notify

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dealwatch/backend/internal/apperror"
	"github.com/dealwatch/backend/internal/model"
	"github.com/dealwatch/backend/pkg/currency"
)

type mockSender struct {
	mock.Mock
}

func (m *mockSender) Send(to, subject, body string) error {
	return m.Called(to, subject, body).Error(0)
}

type mockDirectory struct {
	mock.Mock
}

func (m *mockDirectory) Get(ctx context.Context, userID int64) (*model.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func TestEmailChannel_Deliver(t *testing.T) {
	t.Parallel()

	sender := new(mockSender)
	users := new(mockDirectory)
	ch := NewEmailChannel(sender, users, currency.NewQuoter(currency.JPY, fixedRates{currency.JPY: "150"}), nil)

	users.On("Get", mock.Anything, int64(42)).Return(&model.User{ID: 42, Email: "gamer@example.com"}, nil)
	sender.On("Send", "gamer@example.com", "Price Drop Alert: LEGO Batman",
		mock.MatchedBy(func(body string) bool { return strings.Contains(body, "¥4500 (was ¥6000, -62%)") }),
	).Return(nil).Once()

	require.NoError(t, ch.Deliver(context.Background(), 42, testEvent("40")))
	sender.AssertExpectations(t)
	users.AssertExpectations(t)
}

func TestEmailChannel_DeliverErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		user      *model.User
		lookupErr error
		sendErr   error
		wantErr   error
	}{
		{name: "unknown user", lookupErr: apperror.ErrNotFound, wantErr: apperror.ErrNotFound},
		{name: "no address", user: &model.User{ID: 7}, wantErr: ErrNoEmailAddress},
		{name: "relay refuses", user: &model.User{ID: 7, Email: "a@b.c"}, sendErr: errors.New("550 mailbox unavailable")},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sender := new(mockSender)
			users := new(mockDirectory)
			if tt.user != nil {
				users.On("Get", mock.Anything, int64(7)).Return(tt.user, nil)
			} else {
				users.On("Get", mock.Anything, int64(7)).Return(nil, tt.lookupErr)
			}
			sender.On("Send", mock.Anything, mock.Anything, mock.Anything).Return(tt.sendErr).Maybe()

			err := NewEmailChannel(sender, users, nil, nil).Deliver(context.Background(), 7, testEvent("40"))

			var de *apperror.DeliveryError
			require.True(t, errors.As(err, &de))
			assert.Equal(t, "email", de.Channel)
			assert.Equal(t, int64(7), de.UserID)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestSMTPSender_Send(t *testing.T) {
	t.Parallel()

	s := NewSMTPSender(SMTPConfig{Host: "smtp.example.com", Username: "bot", Password: "pw", From: "alerts@example.com"})

	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	s.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		assert.NotNil(t, a)
		return nil
	}

	require.NoError(t, s.Send("gamer@example.com", "Price Drop Alert: LEGO Batman", "line one\nline two"))

	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, "alerts@example.com", gotFrom)
	assert.Equal(t, []string{"gamer@example.com"}, gotTo)
	msg := string(gotMsg)
	assert.Contains(t, msg, "To: gamer@example.com\r\n")
	assert.Contains(t, msg, "Subject: Price Drop Alert: LEGO Batman\r\n")
	assert.True(t, strings.HasSuffix(msg, "\r\n\r\nline one\r\nline two"))
}
