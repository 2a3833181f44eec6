package handlers

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func testContext(t *testing.T) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	return c
}

func TestGetUserID(t *testing.T) {
	c := testContext(t)
	c.Set("user_id", int64(7))

	id, ok := getUserID(c)
	if !ok || id != 7 {
		t.Fatalf("getUserID = (%d, %v), want (7, true)", id, ok)
	}
}

func TestGetUserIDFromFloatClaim(t *testing.T) {
	c := testContext(t)
	c.Set("user_id", float64(42))

	id, ok := getUserID(c)
	if !ok || id != 42 {
		t.Fatalf("getUserID = (%d, %v), want (42, true)", id, ok)
	}
}

func TestGetUserIDMissing(t *testing.T) {
	c := testContext(t)

	if _, ok := getUserID(c); ok {
		t.Fatal("getUserID reported ok for an unauthenticated context")
	}

	c.Set("user_id", "not-a-number")
	if _, ok := getUserID(c); ok {
		t.Fatal("getUserID reported ok for a malformed claim")
	}
}
