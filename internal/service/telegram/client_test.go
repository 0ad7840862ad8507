package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Sepehrmasihpour/seshat-backend/internal/domain"
	"github.com/Sepehrmasihpour/seshat-backend/pkg/errors"
	"github.com/Sepehrmasihpour/seshat-backend/pkg/logger"
)

const testToken = "123:abc"

func testLogger() *logger.Logger {
	return &logger.Logger{Logger: zap.NewNop()}
}

func writeOK(w http.ResponseWriter, result interface{}) {
	json.NewEncoder(w).Encode(map[string]interface{}{"ok": true, "result": result})
}

func writeErr(w http.ResponseWriter, description string) {
	json.NewEncoder(w).Encode(map[string]interface{}{"ok": false, "description": description})
}

func TestSendMediaText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, fmt.Sprintf("/bot%s/sendMessage", testToken), r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "-100123", r.PostForm.Get("chat_id"))
		assert.Equal(t, "hello", r.PostForm.Get("text"))
		assert.Empty(t, r.PostForm.Get("caption"))
		writeOK(w, map[string]interface{}{"message_id": 7})
	}))
	defer srv.Close()

	client := New(testToken, srv.URL, testLogger())

	msg, err := client.SendMedia(context.Background(), domain.MediaText, "-100123", "hello", "ignored for text")
	require.NoError(t, err)
	assert.Equal(t, 7, msg.MessageID)
}

func TestSendMediaPhotoCarriesCaption(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, fmt.Sprintf("/bot%s/sendPhoto", testToken), r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "AgAC-photo", r.PostForm.Get("photo"))
		assert.Equal(t, "look", r.PostForm.Get("caption"))
		writeOK(w, map[string]interface{}{"message_id": 8})
	}))
	defer srv.Close()

	client := New(testToken, srv.URL, testLogger())

	msg, err := client.SendMedia(context.Background(), domain.MediaPhoto, "-100123", "AgAC-photo", "look")
	require.NoError(t, err)
	assert.Equal(t, 8, msg.MessageID)
}

func TestVendorErrorSurfacesDescription(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeErr(w, "Bad Request: chat not found")
	}))
	defer srv.Close()

	client := New(testToken, srv.URL, testLogger())

	_, err := client.SendMedia(context.Background(), domain.MediaText, "-999", "hello", "")
	require.Error(t, err)

	appErr, ok := err.(*errors.AppError)
	require.True(t, ok)
	assert.Equal(t, errors.ErrorTypeExternal, appErr.Type)
	assert.Equal(t, "Bad Request: chat not found", appErr.Message)
}

func TestSendMediaUpload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, fmt.Sprintf("/bot%s/sendAudio", testToken), r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "-100123", r.FormValue("chat_id"))
		assert.Equal(t, "a tune", r.FormValue("caption"))

		file, header, err := r.FormFile("audio")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "tune.mp3", header.Filename)

		writeOK(w, map[string]interface{}{"message_id": 9})
	}))
	defer srv.Close()

	client := New(testToken, srv.URL, testLogger())

	msg, err := client.SendMediaUpload(context.Background(), domain.MediaAudio, "-100123",
		"tune.mp3", strings.NewReader("mp3-bytes"), "a tune")
	require.NoError(t, err)
	assert.Equal(t, 9, msg.MessageID)
}

func TestGetFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, fmt.Sprintf("/bot%s/getFile", testToken), r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "AgAC-photo", r.PostForm.Get("file_id"))
		writeOK(w, map[string]interface{}{"file_id": "AgAC-photo", "file_path": "photos/file_1.jpg"})
	}))
	defer srv.Close()

	client := New(testToken, srv.URL, testLogger())

	path, err := client.GetFile(context.Background(), "AgAC-photo")
	require.NoError(t, err)
	assert.Equal(t, "photos/file_1.jpg", path)
}

func TestGetFileWithoutPathFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeOK(w, map[string]interface{}{"file_id": "AgAC-photo"})
	}))
	defer srv.Close()

	client := New(testToken, srv.URL, testLogger())

	_, err := client.GetFile(context.Background(), "AgAC-photo")
	require.Error(t, err)
}

func TestDownloadFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, fmt.Sprintf("/file/bot%s/photos/file_1.jpg", testToken), r.URL.Path)
		w.Write([]byte("jpeg-bytes"))
	}))
	defer srv.Close()

	client := New(testToken, srv.URL, testLogger())

	data, err := client.DownloadFile(context.Background(), "photos/file_1.jpg")
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg-bytes"), data)
}

func TestDownloadFileNon200Fails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := New(testToken, srv.URL, testLogger())

	_, err := client.DownloadFile(context.Background(), "photos/gone.jpg")
	require.Error(t, err)
}

func TestSetChatPhoto(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, fmt.Sprintf("/bot%s/setChatPhoto", testToken), r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "-100123", r.FormValue("chat_id"))

		file, header, err := r.FormFile("photo")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "photo.jpg", header.Filename)

		writeOK(w, true)
	}))
	defer srv.Close()

	client := New(testToken, srv.URL, testLogger())

	require.NoError(t, client.SetChatPhoto(context.Background(), "-100123", []byte("jpeg-bytes")))
}

func TestSendPoll(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, fmt.Sprintf("/bot%s/sendPoll", testToken), r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "New photo?", r.PostForm.Get("question"))
		assert.JSONEq(t, `["YES","NO"]`, r.PostForm.Get("options"))
		assert.Equal(t, "true", r.PostForm.Get("is_anonymous"))

		writeOK(w, map[string]interface{}{
			"message_id": 11,
			"poll":       map[string]interface{}{"id": "poll-9", "question": "New photo?"},
		})
	}))
	defer srv.Close()

	client := New(testToken, srv.URL, testLogger())

	msg, err := client.SendPoll(context.Background(), "-100123", "New photo?", []string{"YES", "NO"}, true)
	require.NoError(t, err)
	assert.Equal(t, 11, msg.MessageID)
	assert.Equal(t, "poll-9", msg.Poll.ID)
}

func TestSendPollWithoutPollFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeOK(w, map[string]interface{}{"message_id": 11})
	}))
	defer srv.Close()

	client := New(testToken, srv.URL, testLogger())

	_, err := client.SendPoll(context.Background(), "-100123", "New photo?", []string{"YES", "NO"}, false)
	require.Error(t, err)
}

func TestStopPoll(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, fmt.Sprintf("/bot%s/stopPoll", testToken), r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "42", r.PostForm.Get("message_id"))

		writeOK(w, map[string]interface{}{
			"id":        "poll-9",
			"is_closed": true,
			"options": []map[string]interface{}{
				{"text": "YES", "voter_count": 3},
				{"text": "NO", "voter_count": 1},
			},
		})
	}))
	defer srv.Close()

	client := New(testToken, srv.URL, testLogger())

	poll, err := client.StopPoll(context.Background(), "-100123", 42)
	require.NoError(t, err)
	assert.True(t, poll.IsClosed)
	require.Len(t, poll.Options, 2)
	assert.Equal(t, 3, poll.Options[0].VoterCount)
}

func TestGetUpdatesPassesRawResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "100", r.PostForm.Get("offset"))
		assert.Equal(t, "30", r.PostForm.Get("timeout"))
		assert.JSONEq(t, `["message"]`, r.PostForm.Get("allowed_updates"))

		writeOK(w, []map[string]interface{}{{"update_id": 101}})
	}))
	defer srv.Close()

	client := New(testToken, srv.URL, testLogger())

	raw, err := client.GetUpdates(context.Background(), 100, 30, []string{"message"})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"update_id":101}]`, string(raw))
}
