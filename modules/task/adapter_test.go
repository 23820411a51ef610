package task

import (
	"encoding/json"
	"testing"

	domain "github.com/example/task-manager/domain/task"
	"github.com/example/task-manager/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskFromResponse(t *testing.T) {
	t.Run("task", func(t *testing.T) {
		got, err := taskFromResponse(TaskResponse{Task: &domain.Task{ID: "t1"}})
		require.NoError(t, err)
		assert.Equal(t, "t1", got.ID)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := taskFromResponse(TaskResponse{Error: &apperror.Envelope{Code: apperror.CodeNotFound}})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("validation", func(t *testing.T) {
		_, err := taskFromResponse(TaskResponse{Error: &apperror.Envelope{
			Code:   apperror.CodeValidation,
			Fields: []apperror.FieldError{{Path: "status", Msg: "Invalid status"}},
		}})
		var ve *apperror.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "status", ve.Fields[0].Path)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := taskFromResponse(TaskResponse{})
		assert.Error(t, err)
	})
}

// Requests cross the service container as JSON, so absent fields and an
// explicit null due date must both survive the round trip.
func TestUpdateTaskRequest_PreservesPartialInput(t *testing.T) {
	body := []byte(`{"owner_id":"u1","task_id":"t1","input":{"status":"Completed","dueDate":null}}`)

	var req UpdateTaskRequest
	require.NoError(t, json.Unmarshal(body, &req))

	assert.Nil(t, req.Input.Title)
	require.NotNil(t, req.Input.Status)
	assert.Equal(t, "Completed", *req.Input.Status)
	assert.Equal(t, json.RawMessage("null"), req.Input.DueDate)

	c, err := validate(req.Input, false)
	require.NoError(t, err)
	cols, fields := c.columns()
	assert.Equal(t, []string{"status", "dueDate"}, fields)
	assert.Nil(t, cols["due_date"])

	again, err := json.Marshal(req)
	require.NoError(t, err)
	var back UpdateTaskRequest
	require.NoError(t, json.Unmarshal(again, &back))
	assert.Equal(t, json.RawMessage("null"), back.Input.DueDate)
}
