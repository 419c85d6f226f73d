package handler

import (
	"context"
	"errors"
	"stickerbot/internal/core/domain"
	"stickerbot/internal/core/port"
	"testing"
	"time"

	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockRegistry struct {
	mock.Mock
	cmd port.Command
}

func (m *MockRegistry) Get(cmd string) (port.Command, error) {
	args := m.Called(cmd)
	return m.cmd, args.Error(1)
}

func (m *MockRegistry) Register(handler port.Command) {
	m.cmd = handler
	m.Called(handler)
}

func (m *MockRegistry) ListCommands() []string {
	m.Called()
	return []string{"foo", "bar"}
}

type MockCmdHandler struct{ mock.Mock }

func (m *MockCmdHandler) Respond(ctx context.Context, timeout time.Duration, msg *domain.Message) error {
	args := m.Called(ctx, timeout, msg)
	return args.Error(0)
}

func (m *MockCmdHandler) GetCommand() string {
	return "mock"
}

func makeUpdate(txt string) *models.Update {
	return &models.Update{
		Message: &models.Message{
			ID:   1,
			Text: txt,
			Chat: models.Chat{ID: 100},
			From: &models.User{ID: 200, Username: "bob", FirstName: "bob"},
		},
	}
}

func TestCommandHandler_Handle(t *testing.T) {
	type testcase struct {
		name       string
		update     *models.Update
		mockSetup  func(r *MockRegistry, ch *MockCmdHandler)
		wantCalled bool
		wantMsg    *domain.Message
	}

	tests := []testcase{
		{
			name:       "no message in update",
			update:     &models.Update{},
			mockSetup:  func(_ *MockRegistry, _ *MockCmdHandler) {},
			wantCalled: false,
		},
		{
			name:   "unknown command",
			update: makeUpdate("/unknown"),
			mockSetup: func(r *MockRegistry, _ *MockCmdHandler) {
				r.On("Get", "/unknown").Return(nil, errors.New("no handler"))
			},
			wantCalled: false,
		},
		{
			name:   "known command, Respond called successfully",
			update: makeUpdate("/start@StickerPngBot"),
			mockSetup: func(r *MockRegistry, ch *MockCmdHandler) {
				r.On("Get", "/start").Return(ch, nil)
				ch.On("Respond", mock.Anything, 3*time.Second,
					mock.AnythingOfType("*domain.Message")).Return(nil)
			},
			wantCalled: true,
			wantMsg: &domain.Message{
				ID:       1,
				ChatID:   100,
				Username: "@bob",
				Text:     "/start@StickerPngBot",
			},
		},
		{
			name:   "known command, Respond returns error",
			update: makeUpdate("/fail"),
			mockSetup: func(r *MockRegistry, ch *MockCmdHandler) {
				r.On("Get", "/fail").Return(ch, nil)
				ch.On("Respond", mock.Anything, mock.Anything,
					mock.AnythingOfType("*domain.Message")).Return(errors.New("fail"))
			},
			wantCalled: true,
		},
		{
			name:   "known command, Respond panics",
			update: makeUpdate("/panic"),
			mockSetup: func(r *MockRegistry, ch *MockCmdHandler) {
				r.On("Get", "/panic").Return(ch, nil)
				ch.On("Respond", mock.Anything, mock.Anything, mock.Anything).
					Run(func(mock.Arguments) { panic("boom") })
			},
			wantCalled: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			reg := new(MockRegistry)
			handler := new(MockCmdHandler)
			reg.cmd = handler
			tc.mockSetup(reg, handler)

			ch := NewCommand(reg, 3*time.Second)
			assert.NotPanics(t, func() { ch.Handle(t.Context(), nil, tc.update) })

			reg.AssertExpectations(t)
			if !tc.wantCalled {
				handler.AssertNotCalled(t, "Respond", mock.Anything, mock.Anything, mock.Anything)
				return
			}

			if tc.wantMsg != nil {
				handler.AssertCalled(t, "Respond", mock.Anything, mock.Anything,
					mock.MatchedBy(func(msg *domain.Message) bool {
						return assert.ObjectsAreEqual(tc.wantMsg, msg)
					}),
				)
			} else {
				handler.AssertCalled(t, "Respond", mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}

func TestGetUserNameOrFirstName(t *testing.T) {
	tests := []struct {
		name string
		user *models.User
		want string
	}{
		{name: "username", user: &models.User{Username: "alice", FirstName: "Alice"}, want: "@alice"},
		{name: "first name", user: &models.User{FirstName: "Alice"}, want: "Alice"},
		{name: "no user", user: nil, want: ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, getUserNameOrFirstName(tc.user))
		})
	}
}
