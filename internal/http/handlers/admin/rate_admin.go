package admin

import (
	"errors"
	"strconv"
	"time"

	"github.com/voyago-next/internal/http/handlers/shared"
	"github.com/voyago-next/internal/http/response"
	"github.com/voyago-next/internal/models"
	"github.com/voyago-next/internal/repository"
	"github.com/voyago-next/internal/service"

	"github.com/gin-gonic/gin"
)

// UploadRateRequest 上传费率记录请求
type UploadRateRequest struct {
	Kind              string    `json:"kind" binding:"required"`
	PropertyName      string    `json:"property_name"`
	RoomType          string    `json:"room_type"`
	ActivityName      string    `json:"activity_name"`
	RouteName         string    `json:"route_name"`
	VehicleType       string    `json:"vehicle_type"`
	Location          string    `json:"location"`
	ValidFrom         time.Time `json:"valid_from" binding:"required"`
	ValidTo           time.Time `json:"valid_to" binding:"required"`
	BaseRate          float64   `json:"base_rate" binding:"required"`
	RatePerPerson     bool      `json:"rate_per_person"`
	SingleRate        *float64  `json:"single_rate"`
	DoubleRate        *float64  `json:"double_rate"`
	TripleRate        *float64  `json:"triple_rate"`
	QuadRate          *float64  `json:"quad_rate"`
	CommissionPercent float64   `json:"commission_percent"`
	Source            string    `json:"source" binding:"required"`
	SourceRef         string    `json:"source_ref"`
}

// UploadRate 上传费率记录（同识别键旧记录自动作废）
func (h *Handler) UploadRate(c *gin.Context) {
	var req UploadRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}

	input := service.UploadRateInput{
		Kind:              req.Kind,
		PropertyName:      req.PropertyName,
		RoomType:          req.RoomType,
		ActivityName:      req.ActivityName,
		RouteName:         req.RouteName,
		VehicleType:       req.VehicleType,
		Location:          req.Location,
		ValidFrom:         req.ValidFrom,
		ValidTo:           req.ValidTo,
		BaseRate:          models.NewMoneyFromFloat(req.BaseRate),
		RatePerPerson:     req.RatePerPerson,
		CommissionPercent: models.NewMoneyFromFloat(req.CommissionPercent),
		Source:            req.Source,
		SourceRef:         req.SourceRef,
	}
	input.SingleRate = optionalMoney(req.SingleRate)
	input.DoubleRate = optionalMoney(req.DoubleRate)
	input.TripleRate = optionalMoney(req.TripleRate)
	input.QuadRate = optionalMoney(req.QuadRate)

	record, err := h.RateCatalogService.Upload(input)
	if err != nil {
		if errors.Is(err, service.ErrRateRecordInvalid) {
			shared.RespondError(c, response.CodeBadRequest, "费率记录参数无效", err)
			return
		}
		shared.RespondError(c, response.CodeInternal, "上传费率失败", err)
		return
	}
	response.Success(c, record)
}

// ListRates 分页查询费率记录
func (h *Handler) ListRates(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = shared.NormalizePagination(page, pageSize)

	filter := repository.RateRecordListFilter{
		Page:              page,
		PageSize:          pageSize,
		Kind:              c.Query("kind"),
		Source:            c.Query("source"),
		Search:            c.Query("search"),
		IncludeSuperseded: c.Query("include_superseded") == "true",
	}

	records, total, err := h.RateCatalogService.List(filter)
	if err != nil {
		shared.RespondError(c, response.CodeInternal, "查询费率失败", err)
		return
	}
	response.SuccessWithPage(c, records, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	})
}

func optionalMoney(value *float64) *models.Money {
	if value == nil {
		return nil
	}
	money := models.NewMoneyFromFloat(*value)
	return &money
}
