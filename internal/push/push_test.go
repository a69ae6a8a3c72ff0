package push

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/SonyCookies/bongwell/internal/model"
)

func fakeResponse(status int) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader("")),
	}
}

func testService(send sender) *Service {
	return &Service{
		publicKey:  "pub",
		privateKey: "priv",
		send:       send,
	}
}

func TestNewServiceRequiresKeys(t *testing.T) {
	if NewService("", "") != nil {
		t.Error("expected nil service without keys")
	}
	if NewService("pub", "") != nil {
		t.Error("expected nil service without private key")
	}
	svc := NewService("pub", "priv")
	if svc == nil {
		t.Fatal("expected service with both keys")
	}
	if svc.VAPIDPublicKey() != "pub" {
		t.Errorf("public key = %q", svc.VAPIDPublicKey())
	}
}

func TestSendPayload(t *testing.T) {
	var gotMessage []byte
	var gotSub *webpush.Subscription
	var gotOpts *webpush.Options

	svc := testService(func(message []byte, s *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
		gotMessage = message
		gotSub = s
		gotOpts = options
		return fakeResponse(http.StatusCreated), nil
	})

	sub := &model.PushSubscription{
		Endpoint:  "https://push.example.com/abc",
		P256dhKey: "p256",
		AuthKey:   "auth",
	}
	err := svc.Send(sub, Payload{Title: "New contact submission", Body: "Jane: hi", URL: "/admin/inbox"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	var payload Payload
	if err := json.Unmarshal(gotMessage, &payload); err != nil {
		t.Fatalf("unmarshal sent payload: %v", err)
	}
	if payload.Title != "New contact submission" || payload.URL != "/admin/inbox" {
		t.Errorf("payload = %+v", payload)
	}
	if gotSub.Endpoint != sub.Endpoint || gotSub.Keys.P256dh != "p256" || gotSub.Keys.Auth != "auth" {
		t.Errorf("subscription = %+v", gotSub)
	}
	if gotOpts.VAPIDPublicKey != "pub" || gotOpts.VAPIDPrivateKey != "priv" {
		t.Errorf("options = %+v", gotOpts)
	}
}

func TestSendExpiredSubscription(t *testing.T) {
	svc := testService(func([]byte, *webpush.Subscription, *webpush.Options) (*http.Response, error) {
		return fakeResponse(http.StatusGone), nil
	})

	err := svc.Send(&model.PushSubscription{Endpoint: "e"}, Payload{Title: "t"})
	if err != ErrExpired {
		t.Errorf("err = %v, want ErrExpired", err)
	}
}

func TestSendServerError(t *testing.T) {
	svc := testService(func([]byte, *webpush.Subscription, *webpush.Options) (*http.Response, error) {
		return fakeResponse(http.StatusBadRequest), nil
	})

	err := svc.Send(&model.PushSubscription{Endpoint: "e"}, Payload{Title: "t"})
	if err == nil || err == ErrExpired {
		t.Errorf("err = %v, want generic error", err)
	}
}
