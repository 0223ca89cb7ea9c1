package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFacultyResolveIsMemoised(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.srv.SetFaculty("61234567", "Science")
	const path = "/api/equipment/faculty-from-student/"

	assert.Equal(t, "Science", e.faculty.Resolve(ctx, "61234567"))
	assert.Equal(t, "Science", e.faculty.Resolve(ctx, "6123-4567"))
	assert.Equal(t, 1, e.srv.Calls(path))

	assert.Empty(t, e.faculty.Resolve(ctx, "1234"))
	assert.Equal(t, 1, e.srv.Calls(path))
}

func TestFacultyFailureIsEmpty(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.srv.SetFaculty("61234567", "Science")
	e.srv.FailNext("/api/equipment/faculty-from-student/", http.StatusBadGateway, "")

	assert.Empty(t, e.faculty.Resolve(ctx, "61234567"))
	assert.Equal(t, "Science", e.faculty.Resolve(ctx, "61234567"))
}
