package easyboss

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/profitboard/backend/internal/domain/costsync"
)

const (
	createExportTaskPath = "/api/order/createOrderExportTask"

	exportDateLayout = "2006-01-02 15:04:05"
)

// exportCheckedFields is the column manifest sent with every export
// request. The platform renders exactly these columns, in this order,
// into the artifact.
var exportCheckedFields = []string{
	"platformName",
	"shopNick",
	"platformOrderSn",
	"appOrderStatusText",
	"accountCurrencyEscrowAmount",
	"accountCurrencyTotalPurchasePrice",
	"purchasePriceTotal",
	"accountCurrencyForwarderFreight",
	"packagingCost",
	"accountCurrencyOtherCost",
	"accountCurrencyCommissionFee",
	"accountCurrencySellerTransactionFee",
	"accountCurrencyTotalProfit",
	"platformOuterSkuId",
	"platformItemId",
	"goodsSkuOuterId",
	"goodsName",
	"quantity",
	"gmtOrderStart",
	"gmtPay",
}

// flexID tolerates the platform reporting task ids as either JSON
// numbers or strings.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

type createExportTaskData struct {
	TaskID flexID `json:"opOrderExportTaskId"`
}

// CreateExportJob asks the platform to build an order-detail export for
// the given date range and returns the task id to poll.
func (c *Client) CreateExportJob(ctx context.Context, session *costsync.Session, r costsync.DateRange) (string, error) {
	form := url.Values{}
	form.Set("exportType", "order_detail")
	form.Set("accountOpOrderExportTemplateId", c.config.TemplateID)
	form.Set("exportMode", "1")
	form.Set("showMode", "1")
	form.Set("exportBundleType", "bundle")
	form.Set("bizCode", exportBizCode)
	form.Set("imageWidth", "80")
	form.Set("imageHeight", "80")
	for i, field := range exportCheckedFields {
		form.Set(fmt.Sprintf("checkedFields[%d]", i), field)
	}
	form.Set("searchCondition[appPackageTab]", "all")
	form.Set("searchCondition[sortField]", "gmtOrderStart")
	form.Set("searchCondition[sortType]", "desc")
	form.Set("searchCondition[gmtOrderStartFrom]", r.From.Format(exportDateLayout))
	form.Set("searchCondition[gmtOrderStartTo]", r.To.Format(exportDateLayout))

	envelope, err := c.postForm(ctx, session.Token, createExportTaskPath, form)
	if err != nil {
		if costsync.IsSessionExpired(err) {
			return "", err
		}
		return "", costsync.NewTaskCreationError("create export task", err)
	}
	if !envelope.IsSuccess() {
		return "", costsync.NewTaskCreationError(fmt.Sprintf("platform refused export task: %s", envelope.failureDetail()), nil)
	}

	var data createExportTaskData
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		return "", costsync.NewTaskCreationError("parse export task response", err)
	}
	taskID := strings.TrimSpace(string(data.TaskID))
	if taskID == "" {
		return "", costsync.NewTaskCreationError("platform returned no task id", nil)
	}
	return taskID, nil
}
