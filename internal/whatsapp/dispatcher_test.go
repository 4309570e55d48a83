package whatsapp

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"imoveisdf/server/internal/models"
)

// MockTransport is a testify mock of the outbound gateway.
type MockTransport struct {
	mock.Mock
	configured bool
}

func (m *MockTransport) Configured() bool   { return m.configured }
func (m *MockTransport) InstanceID() string { return "instance123" }

func (m *MockTransport) SendText(ctx context.Context, to, body string) (*SendResult, error) {
	args := m.Called(ctx, to, body)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*SendResult), args.Error(1)
}

func (m *MockTransport) SendImage(ctx context.Context, to, imageURL, caption string) (*SendResult, error) {
	args := m.Called(ctx, to, imageURL, caption)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*SendResult), args.Error(1)
}

// fakeRecorder captures what the dispatcher persists.
type fakeRecorder struct {
	messages    []*models.WhatsAppMessage
	leadUpdates map[string]map[string]interface{}
	appendErr   error
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{leadUpdates: make(map[string]map[string]interface{})}
}

func (f *fakeRecorder) AppendMessage(msg *models.WhatsAppMessage) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.messages = append(f.messages, msg)
	return nil
}

func (f *fakeRecorder) UpdateLeadFields(id string, fields map[string]interface{}) error {
	f.leadUpdates[id] = fields
	return nil
}

func dispatchLead() *models.Lead {
	phone := "61987654321"
	return &models.Lead{
		ID:             "lead-1",
		Name:           "Maria",
		Phone:          &phone,
		Status:         models.LeadStatusNew,
		EnableMatching: true,
	}
}

func dispatchProperty() *models.Property {
	return &models.Property{
		ID:    "prop-1",
		Title: "Apartamento em Águas Claras",
		Slug:  "apartamento-aguas-claras",
		Price: 500000,
		City:  "Águas Claras",
		State: "DF",
	}
}

func TestDispatchMatchSuccess(t *testing.T) {
	transport := &MockTransport{configured: true}
	transport.On("SendText", mock.Anything, "5561987654321", mock.Anything).
		Return(&SendResult{ID: "101", Sent: true}, nil)

	store := newFakeRecorder()
	d := NewDispatcher(logrus.New(), transport, store, "https://imoveisdf.com.br")

	result, err := d.DispatchMatch(context.Background(), dispatchLead(), dispatchProperty(), []string{"Cidade: Águas Claras"})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "101", result.MessageID)

	// Exactly one log row, tagged with the matching flow.
	require.Len(t, store.messages, 1)
	msg := store.messages[0]
	assert.Equal(t, "101", msg.MessageID)
	assert.Equal(t, "5561987654321", msg.To)
	assert.Equal(t, models.SourcePropertyMatching, msg.Source)
	assert.Equal(t, models.MessageSent, msg.Status)
	assert.True(t, msg.FromMe)
	require.NotNil(t, msg.PropertyID)
	assert.Equal(t, "prop-1", *msg.PropertyID)

	// The lead advanced to contacted and was marked processed.
	update := store.leadUpdates["lead-1"]
	require.NotNil(t, update)
	assert.Equal(t, true, update["agent_processed"])
	assert.Equal(t, "whatsapp_sent", update["agent_status"])
	assert.Equal(t, models.LeadStatusContacted, update["status"])

	transport.AssertExpectations(t)
}

func TestDispatchMatchPrefersImageSend(t *testing.T) {
	transport := &MockTransport{configured: true}
	transport.On("SendImage", mock.Anything, "5561987654321", "https://cdn.example/a.jpg", mock.Anything).
		Return(&SendResult{ID: "102", Sent: true}, nil)

	store := newFakeRecorder()
	d := NewDispatcher(logrus.New(), transport, store, "https://imoveisdf.com.br")

	property := dispatchProperty()
	property.Images = `["https://cdn.example/a.jpg","https://cdn.example/b.jpg"]`

	_, err := d.DispatchMatch(context.Background(), dispatchLead(), property, nil)
	require.NoError(t, err)
	transport.AssertExpectations(t)
	transport.AssertNotCalled(t, "SendText", mock.Anything, mock.Anything, mock.Anything)
}

func TestDispatchMatchTransportFailure(t *testing.T) {
	transport := &MockTransport{configured: true}
	transport.On("SendText", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("gateway timeout"))

	store := newFakeRecorder()
	d := NewDispatcher(logrus.New(), transport, store, "https://imoveisdf.com.br")

	result, err := d.DispatchMatch(context.Background(), dispatchLead(), dispatchProperty(), nil)
	assert.Error(t, err)
	assert.False(t, result.Success)

	// A failed send writes nothing and mutates nothing.
	assert.Empty(t, store.messages)
	assert.Empty(t, store.leadUpdates)
}

func TestDispatchMatchNotConfigured(t *testing.T) {
	transport := &MockTransport{configured: false}
	store := newFakeRecorder()
	d := NewDispatcher(logrus.New(), transport, store, "https://imoveisdf.com.br")

	_, err := d.DispatchMatch(context.Background(), dispatchLead(), dispatchProperty(), nil)
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Empty(t, store.messages)
	transport.AssertNotCalled(t, "SendText", mock.Anything, mock.Anything, mock.Anything)
}

func TestDispatchMatchCancelledContext(t *testing.T) {
	transport := &MockTransport{configured: true}
	store := newFakeRecorder()
	d := NewDispatcher(logrus.New(), transport, store, "https://imoveisdf.com.br")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.DispatchMatch(ctx, dispatchLead(), dispatchProperty(), nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, store.messages)
	transport.AssertNotCalled(t, "SendText", mock.Anything, mock.Anything, mock.Anything)
}

func TestDispatchSuggestionsDoesNotTouchLead(t *testing.T) {
	transport := &MockTransport{configured: true}
	transport.On("SendText", mock.Anything, "5561987654321", mock.Anything).
		Return(&SendResult{ID: "103", Sent: true}, nil)

	store := newFakeRecorder()
	d := NewDispatcher(logrus.New(), transport, store, "https://imoveisdf.com.br")

	result, err := d.DispatchSuggestions(context.Background(), dispatchLead(), []*models.Property{dispatchProperty()})
	require.NoError(t, err)
	assert.True(t, result.Success)

	require.Len(t, store.messages, 1)
	assert.Equal(t, models.SourceLeadSuggestions, store.messages[0].Source)
	assert.Nil(t, store.messages[0].PropertyID)

	// Lead state transitions belong to the orchestration layer here.
	assert.Empty(t, store.leadUpdates)
}

func TestDispatchPriceDrop(t *testing.T) {
	transport := &MockTransport{configured: true}
	transport.On("SendText", mock.Anything, "5561987654321", mock.Anything).
		Return(&SendResult{ID: "104", Sent: true}, nil)

	store := newFakeRecorder()
	d := NewDispatcher(logrus.New(), transport, store, "https://imoveisdf.com.br")

	alert := &models.PriceAlert{ID: "alert-1", Name: "João", Phone: "61987654321", PropertyID: "prop-1", Active: true}
	result, err := d.DispatchPriceDrop(context.Background(), alert, dispatchProperty(), 1000, 800)
	require.NoError(t, err)
	assert.True(t, result.Success)

	require.Len(t, store.messages, 1)
	assert.Equal(t, models.SourcePriceAlert, store.messages[0].Source)
	assert.Contains(t, store.messages[0].Body, "Economia: R$ 200")
	assert.Empty(t, store.leadUpdates)
}

func TestDispatchRecordFailureReportedToCaller(t *testing.T) {
	transport := &MockTransport{configured: true}
	transport.On("SendText", mock.Anything, mock.Anything, mock.Anything).
		Return(&SendResult{ID: "105", Sent: true}, nil)

	store := newFakeRecorder()
	store.appendErr = errors.New("disk full")
	d := NewDispatcher(logrus.New(), transport, store, "https://imoveisdf.com.br")

	result, err := d.DispatchMatch(context.Background(), dispatchLead(), dispatchProperty(), nil)
	assert.Error(t, err)
	assert.False(t, result.Success)
	assert.Empty(t, store.leadUpdates)
}

func TestDispatchMissingMessageIDGetsFallback(t *testing.T) {
	transport := &MockTransport{configured: true}
	transport.On("SendText", mock.Anything, mock.Anything, mock.Anything).
		Return(&SendResult{ID: "", Sent: true}, nil)

	store := newFakeRecorder()
	d := NewDispatcher(logrus.New(), transport, store, "https://imoveisdf.com.br")

	_, err := d.DispatchMatch(context.Background(), dispatchLead(), dispatchProperty(), nil)
	require.NoError(t, err)
	require.Len(t, store.messages, 1)
	assert.NotEmpty(t, store.messages[0].MessageID)
}
