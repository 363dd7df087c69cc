package easyboss

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/profitboard/backend/internal/domain/costsync"
)

const (
	getExportTaskPath     = "/api/order/getOrderExportTask"
	getExportTaskListPath = "/api/order/getOrderExportTaskList"

	exportBizCode = "opOrders"
)

// errTaskNotFound signals that a poll response did not mention the task.
// It triggers the list-scan fallback rather than failing the run.
var errTaskNotFound = errors.New("easyboss: task not present in response")

// taskPayload is the platform's raw export task record. The same shape
// appears both as a bare object and inside list responses.
type taskPayload struct {
	TaskID    flexID `json:"opOrderExportTaskId"`
	BizTaskID flexID `json:"accountBizExportTaskId"`
	Status    string `json:"status"`
	Progress  int    `json:"progress"`
	OssURL    string `json:"ossUrl"`
	OssPath   string `json:"ossPath"`
	Reason    string `json:"reason"`
}

// normalize maps a raw task record onto the domain job model. Statuses
// outside the known vocabulary stay non-terminal.
func (p *taskPayload) normalize() *costsync.ExportJob {
	job := &costsync.ExportJob{
		ID:       string(p.TaskID),
		Progress: p.Progress,
		Reason:   p.Reason,
	}
	if job.ID == "" {
		job.ID = string(p.BizTaskID)
	}
	switch strings.ToLower(p.Status) {
	case "success", "completed":
		job.Status = costsync.JobStatusSuccess
	case "failed", "error":
		job.Status = costsync.JobStatusFailed
	case "pending", "waiting":
		job.Status = costsync.JobStatusPending
	default:
		job.Status = costsync.JobStatusRunning
	}
	if p.OssURL != "" {
		job.ResultLocation = p.OssURL
	} else {
		job.ResultLocation = p.OssPath
	}
	return job
}

// Poller watches an export task until it finishes or the polling budget
// runs out.
type Poller struct {
	client   *Client
	interval time.Duration
	timeout  time.Duration
	logger   *zap.Logger
}

// NewPoller creates a poller with the client's configured interval and
// budget.
func NewPoller(client *Client, logger *zap.Logger) *Poller {
	return &Poller{
		client:   client,
		interval: client.config.PollInterval,
		timeout:  client.config.PollTimeout,
		logger:   logger.Named("poller"),
	}
}

// WaitForCompletion polls until the task reports success, reports
// failure, or the budget elapses. Success requires a result location;
// session expiry aborts immediately.
func (p *Poller) WaitForCompletion(ctx context.Context, session *costsync.Session, taskID string) (*costsync.ExportJob, error) {
	deadline := time.Now().Add(p.timeout)

	for {
		job, err := p.pollOnce(ctx, session, taskID)
		switch {
		case errors.Is(err, errTaskNotFound):
			// Export tasks occasionally lag behind their creation
			// acknowledgement; keep polling.
			p.logger.Debug("task not visible yet", zap.String("task_id", taskID))
		case err != nil:
			return nil, err
		case job.Status == costsync.JobStatusFailed:
			return nil, costsync.NewExportFailedError(fmt.Sprintf("export task %s failed: %s", taskID, job.Reason))
		case job.Status == costsync.JobStatusSuccess:
			if job.ResultLocation == "" {
				return nil, costsync.NewExportFailedError(fmt.Sprintf("export task %s reported success without a result location", taskID))
			}
			return job, nil
		default:
			p.logger.Debug("task still running",
				zap.String("task_id", taskID),
				zap.String("status", string(job.Status)),
				zap.Int("progress", job.Progress),
			)
		}

		if time.Now().Add(p.interval).After(deadline) {
			return nil, costsync.NewPollingTimeoutError(fmt.Sprintf("export task %s did not finish within %s", taskID, p.timeout))
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(p.interval):
		}
	}
}

// pollOnce tries the single-task lookup first and falls back to scanning
// the task list when the response does not carry the task.
func (p *Poller) pollOnce(ctx context.Context, session *costsync.Session, taskID string) (*costsync.ExportJob, error) {
	job, err := p.lookupTask(ctx, session, taskID)
	if err == nil || !errors.Is(err, errTaskNotFound) {
		return job, err
	}
	return p.scanTaskList(ctx, session, taskID)
}

// lookupTask queries the single-task endpoint. The endpoint's data field
// is a tagged union: either the task object itself or a {list: [...]}
// wrapper to scan.
func (p *Poller) lookupTask(ctx context.Context, session *costsync.Session, taskID string) (*costsync.ExportJob, error) {
	query := url.Values{}
	query.Set("bizCode", exportBizCode)
	query.Set("opOrderExportTaskId", taskID)

	envelope, err := p.client.getJSON(ctx, session.Token, getExportTaskPath, query)
	if err != nil {
		return nil, err
	}
	if !envelope.IsSuccess() {
		return nil, fmt.Errorf("easyboss: poll rejected: %s", envelope.failureDetail())
	}
	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return nil, errTaskNotFound
	}

	var wrapper struct {
		List []taskPayload `json:"list"`
	}
	if err := json.Unmarshal(envelope.Data, &wrapper); err == nil && wrapper.List != nil {
		return matchTask(wrapper.List, taskID)
	}

	var payload taskPayload
	if err := json.Unmarshal(envelope.Data, &payload); err != nil {
		return nil, fmt.Errorf("easyboss: parse poll response: %w", err)
	}
	if payload.Status == "" {
		return nil, errTaskNotFound
	}
	return payload.normalize(), nil
}

// scanTaskList queries the list endpoint and matches on either task id.
func (p *Poller) scanTaskList(ctx context.Context, session *costsync.Session, taskID string) (*costsync.ExportJob, error) {
	query := url.Values{}
	query.Set("bizCode", exportBizCode)

	envelope, err := p.client.getJSON(ctx, session.Token, getExportTaskListPath, query)
	if err != nil {
		return nil, err
	}
	if !envelope.IsSuccess() {
		return nil, fmt.Errorf("easyboss: task list rejected: %s", envelope.failureDetail())
	}

	var wrapper struct {
		List []taskPayload `json:"list"`
	}
	if err := json.Unmarshal(envelope.Data, &wrapper); err != nil {
		return nil, fmt.Errorf("easyboss: parse task list: %w", err)
	}
	return matchTask(wrapper.List, taskID)
}

func matchTask(list []taskPayload, taskID string) (*costsync.ExportJob, error) {
	for i := range list {
		if string(list[i].TaskID) == taskID || string(list[i].BizTaskID) == taskID {
			return list[i].normalize(), nil
		}
	}
	return nil, errTaskNotFound
}
