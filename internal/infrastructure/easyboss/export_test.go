package easyboss

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/profitboard/backend/internal/domain/costsync"
)

func testDateRange() costsync.DateRange {
	return costsync.DateRange{
		From: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2026, 3, 3, 23, 59, 59, 0, time.UTC),
	}
}

func TestCreateExportJob(t *testing.T) {
	session := &costsync.Session{Token: "SESSION=abc", IssuedAt: time.Now()}

	t.Run("sends manifest and date filter", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, createExportTaskPath, r.URL.Path)
			require.Equal(t, "SESSION=abc", r.Header.Get("Cookie"))
			require.NoError(t, r.ParseForm())

			assert.Equal(t, "order_detail", r.PostForm.Get("exportType"))
			assert.Equal(t, "42", r.PostForm.Get("accountOpOrderExportTemplateId"))
			assert.Equal(t, "1", r.PostForm.Get("exportMode"))
			assert.Equal(t, "1", r.PostForm.Get("showMode"))
			assert.Equal(t, "bundle", r.PostForm.Get("exportBundleType"))
			assert.Equal(t, "opOrders", r.PostForm.Get("bizCode"))
			assert.Equal(t, "all", r.PostForm.Get("searchCondition[appPackageTab]"))
			assert.Equal(t, "2026-03-01 00:00:00", r.PostForm.Get("searchCondition[gmtOrderStartFrom]"))
			assert.Equal(t, "2026-03-03 23:59:59", r.PostForm.Get("searchCondition[gmtOrderStartTo]"))
			assert.Equal(t, "gmtOrderStart", r.PostForm.Get("searchCondition[sortField]"))
			assert.Equal(t, "desc", r.PostForm.Get("searchCondition[sortType]"))

			// Every manifest column travels as an indexed field
			assert.Equal(t, "platformName", r.PostForm.Get("checkedFields[0]"))
			assert.Equal(t, "platformOrderSn", r.PostForm.Get("checkedFields[2]"))
			assert.Equal(t, "packagingCost", r.PostForm.Get("checkedFields[8]"))
			for i := range exportCheckedFields {
				assert.NotEmpty(t, r.PostForm.Get(fmt.Sprintf("checkedFields[%d]", i)))
			}

			w.Write([]byte(`{"result":"success","data":{"opOrderExportTaskId":98765}}`))
		}))
		defer server.Close()

		taskID, err := newTestClient(t, server.URL).CreateExportJob(context.Background(), session, testDateRange())
		require.NoError(t, err)
		assert.Equal(t, "98765", taskID)
	})

	t.Run("task id as string", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"result":"success","data":{"opOrderExportTaskId":"abc-1"}}`))
		}))
		defer server.Close()

		taskID, err := newTestClient(t, server.URL).CreateExportJob(context.Background(), session, testDateRange())
		require.NoError(t, err)
		assert.Equal(t, "abc-1", taskID)
	})

	t.Run("platform refusal", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"result":"fail","reason":"导出任务过多"}`))
		}))
		defer server.Close()

		_, err := newTestClient(t, server.URL).CreateExportJob(context.Background(), session, testDateRange())
		require.Error(t, err)
		assert.Equal(t, costsync.ErrKindTaskCreation, costsync.KindOf(err))
	})

	t.Run("missing task id", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"result":"success","data":{}}`))
		}))
		defer server.Close()

		_, err := newTestClient(t, server.URL).CreateExportJob(context.Background(), session, testDateRange())
		require.Error(t, err)
		assert.Equal(t, costsync.ErrKindTaskCreation, costsync.KindOf(err))
	})

	t.Run("session expiry propagates untouched", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"result":"fail","code":50001,"reason":"登录失效"}`))
		}))
		defer server.Close()

		_, err := newTestClient(t, server.URL).CreateExportJob(context.Background(), session, testDateRange())
		require.Error(t, err)
		assert.True(t, costsync.IsSessionExpired(err))
	})
}
