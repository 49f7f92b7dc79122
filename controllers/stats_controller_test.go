package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"visitlog/config"
	"visitlog/models"
	"visitlog/utils"
)

func newStatsRouter(db *gorm.DB) *gin.Engine {
	sc := NewStatsController(db, config.AppConfig{})
	r := gin.New()
	r.GET("/api/v1/stats/:postId", sc.GetPostStats)
	return r
}

func getStats(r *gin.Engine, path, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = remoteAddr
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func countRows(n int64) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"count(*)"}).AddRow(n)
}

func TestGetPostStats(t *testing.T) {
	db, mock := newMockDB(t)
	r := newStatsRouter(db)

	mock.MatchExpectationsInOrder(false)
	mock.ExpectQuery(`WHERE post_id = \?$`).WillReturnRows(countRows(5))
	mock.ExpectQuery(`COUNT\(DISTINCT`).WillReturnRows(countRows(3))
	mock.ExpectQuery(`created_at >= \?$`).WillReturnRows(countRows(2))
	mock.ExpectQuery(`created_at >= \?$`).WillReturnRows(countRows(2))
	mock.ExpectQuery(`AND ip = \?$`).WillReturnRows(countRows(1))

	w := getStats(r, "/api/v1/stats/p1", "1.2.3.4:55000")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Code int               `json:"code"`
		Data models.VisitStats `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	want := models.VisitStats{PostID: "p1", TotalVisits: 5, UniqueVisitors: 3, Last7Days: 2, Last24h: 2, YourVisits: 1}
	if resp.Data != want {
		t.Errorf("unexpected stats: got %+v want %+v", resp.Data, want)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestGetPostStatsBlankID(t *testing.T) {
	db, mock := newMockDB(t)
	r := newStatsRouter(db)

	w := getStats(r, "/api/v1/stats/%20", "1.2.3.4:55000")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank postId, got %d", w.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestGetPostStatsStorageFailure(t *testing.T) {
	db, mock := newMockDB(t)
	r := newStatsRouter(db)

	mock.MatchExpectationsInOrder(false)
	mock.ExpectQuery(`WHERE post_id = \?$`).WillReturnError(errors.New("server has gone away"))
	mock.ExpectQuery(`COUNT\(DISTINCT`).WillReturnRows(countRows(3))
	mock.ExpectQuery(`created_at >= \?$`).WillReturnRows(countRows(2))
	mock.ExpectQuery(`created_at >= \?$`).WillReturnRows(countRows(2))
	mock.ExpectQuery(`AND ip = \?$`).WillReturnRows(countRows(1))

	w := getStats(r, "/api/v1/stats/p1", "1.2.3.4:55000")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	var resp utils.JSONResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Message != "internal server error" {
		t.Errorf("internal detail must stay out of the response, got %q", resp.Message)
	}
}
