package response

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
)

func TestDefaultMessage(t *testing.T) {
	cases := map[int]string{
		fiber.StatusOK:                 MessageOK,
		fiber.StatusBadRequest:         MessageBadRequest,
		fiber.StatusNotFound:           MessageNotFound,
		fiber.StatusServiceUnavailable: MessageServiceUnavailable,
		fiber.StatusBadGateway:         MessageInternalServerError,
		fiber.StatusTeapot:             MessageError,
	}
	for status, want := range cases {
		if got := DefaultMessage(status); got != want {
			t.Fatalf("status %d: expected %q, got %q", status, want, got)
		}
	}
}

func TestError_NormalizesStatusAndMessage(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c fiber.Ctx) error {
		return Error(c, 42, "", nil)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)

	var got SemanticResponse
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("invalid body %q: %v", string(b), err)
	}
	if resp.StatusCode != fiber.StatusInternalServerError || got.Status != fiber.StatusInternalServerError || got.Message != MessageInternalServerError {
		t.Fatalf("expected normalized 500 envelope, got %d %+v", resp.StatusCode, got)
	}
}
