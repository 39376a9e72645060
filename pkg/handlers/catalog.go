package handlers

import (
	"errors"
	"net/http"
	"strings"

	"smart-neighborhood-backend/pkg/config"
	"smart-neighborhood-backend/pkg/database"
	"smart-neighborhood-backend/pkg/middleware"
	"smart-neighborhood-backend/pkg/models"
	"smart-neighborhood-backend/pkg/utils"

	chiRoute "github.com/go-chi/chi/v5"
)

// CatalogHandler 实体目录处理器（资源/场地/活动的简单增查改）
type CatalogHandler struct {
	config *config.Config
	db     database.DatabaseInterface
}

// NewCatalogHandler 创建目录处理器
func NewCatalogHandler(cfg *config.Config, db database.DatabaseInterface) *CatalogHandler {
	return &CatalogHandler{config: cfg, db: db}
}

// ==== 资源 ====

// CreateResource 发布资源
// POST /api/resources
func (h *CatalogHandler) CreateResource(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Authentication required")
		return
	}

	var req struct {
		Title        string `json:"title"`
		Description  string `json:"description"`
		Category     string `json:"category"`
		Availability string `json:"availability"`
	}
	if err := utils.ParseJSONBody(r, &req); err != nil {
		utils.WriteBadRequestResponse(w, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		utils.WriteValidationErrorResponse(w, "Title is required", "")
		return
	}
	if !models.ValidDate(req.Availability) {
		utils.WriteValidationErrorResponse(w, "Invalid availability date, expected YYYY-MM-DD", req.Availability)
		return
	}

	resource := &models.Resource{
		UserID:       user.ID,
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		Availability: req.Availability,
	}
	if err := h.db.CreateResource(resource); err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to create resource: "+err.Error())
		return
	}
	utils.WriteCreatedResponse(w, map[string]interface{}{"resource": resource})
}

// ListResources 列出资源
// GET /api/resources
func (h *CatalogHandler) ListResources(w http.ResponseWriter, r *http.Request) {
	resources, err := h.db.ListResources()
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}
	utils.WriteSuccessResponse(w, map[string]interface{}{"resources": resources})
}

// GetResource 查看单个资源
// GET /api/resources/{id}
func (h *CatalogHandler) GetResource(w http.ResponseWriter, r *http.Request) {
	id, err := utils.ParseInt64Param(chiRoute.URLParam(r, "id"))
	if err != nil {
		utils.WriteBadRequestResponse(w, "Invalid resource id")
		return
	}
	resource, err := h.db.GetResourceByID(id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			utils.WriteNotFoundResponse(w, "Resource not found")
			return
		}
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}
	utils.WriteSuccessResponse(w, map[string]interface{}{"resource": resource})
}

// UpdateResourceAvailability 修改资源可用日期（仅发布者本人）
// PUT /api/resources/{id}/availability
func (h *CatalogHandler) UpdateResourceAvailability(w http.ResponseWriter, r *http.Request) {
	h.updateGoverningDate(w, r, models.KindResource)
}

// ==== 空间 ====

// CreateSpace 发布共享空间
// POST /api/spaces
func (h *CatalogHandler) CreateSpace(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Authentication required")
		return
	}

	var req struct {
		Name         string `json:"name"`
		Description  string `json:"description"`
		Location     string `json:"location"`
		Availability string `json:"availability"`
	}
	if err := utils.ParseJSONBody(r, &req); err != nil {
		utils.WriteBadRequestResponse(w, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		utils.WriteValidationErrorResponse(w, "Name is required", "")
		return
	}
	if !models.ValidDate(req.Availability) {
		utils.WriteValidationErrorResponse(w, "Invalid availability date, expected YYYY-MM-DD", req.Availability)
		return
	}

	space := &models.Space{
		Name:         req.Name,
		Description:  req.Description,
		Location:     req.Location,
		Availability: req.Availability,
		CreatedBy:    user.ID,
	}
	if err := h.db.CreateSpace(space); err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to create space: "+err.Error())
		return
	}
	utils.WriteCreatedResponse(w, map[string]interface{}{"space": space})
}

// ListSpaces 列出空间
// GET /api/spaces
func (h *CatalogHandler) ListSpaces(w http.ResponseWriter, r *http.Request) {
	spaces, err := h.db.ListSpaces()
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}
	utils.WriteSuccessResponse(w, map[string]interface{}{"spaces": spaces})
}

// GetSpace 查看单个空间
// GET /api/spaces/{id}
func (h *CatalogHandler) GetSpace(w http.ResponseWriter, r *http.Request) {
	id, err := utils.ParseInt64Param(chiRoute.URLParam(r, "id"))
	if err != nil {
		utils.WriteBadRequestResponse(w, "Invalid space id")
		return
	}
	space, err := h.db.GetSpaceByID(id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			utils.WriteNotFoundResponse(w, "Space not found")
			return
		}
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}
	utils.WriteSuccessResponse(w, map[string]interface{}{"space": space})
}

// UpdateSpaceAvailability 修改空间可用日期（仅创建者本人）
// PUT /api/spaces/{id}/availability
func (h *CatalogHandler) UpdateSpaceAvailability(w http.ResponseWriter, r *http.Request) {
	h.updateGoverningDate(w, r, models.KindSpace)
}

// ==== 活动 ====

// CreateEvent 发布活动
// POST /api/events
func (h *CatalogHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Authentication required")
		return
	}

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Date        string `json:"date"`
		Location    string `json:"location"`
	}
	if err := utils.ParseJSONBody(r, &req); err != nil {
		utils.WriteBadRequestResponse(w, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Location) == "" {
		utils.WriteValidationErrorResponse(w, "Name and location are required", "")
		return
	}
	if !models.ValidDate(req.Date) {
		utils.WriteValidationErrorResponse(w, "Invalid event date, expected YYYY-MM-DD", req.Date)
		return
	}

	event := &models.Event{
		Name:        req.Name,
		Description: req.Description,
		Date:        req.Date,
		Location:    req.Location,
		HostedBy:    user.ID,
	}
	if err := h.db.CreateEvent(event); err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to create event: "+err.Error())
		return
	}
	utils.WriteCreatedResponse(w, map[string]interface{}{"event": event})
}

// ListEvents 列出活动
// GET /api/events
func (h *CatalogHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.db.ListEvents()
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}
	utils.WriteSuccessResponse(w, map[string]interface{}{"events": events})
}

// GetEvent 查看单个活动
// GET /api/events/{id}
func (h *CatalogHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, err := utils.ParseInt64Param(chiRoute.URLParam(r, "id"))
	if err != nil {
		utils.WriteBadRequestResponse(w, "Invalid event id")
		return
	}
	event, err := h.db.GetEventByID(id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			utils.WriteNotFoundResponse(w, "Event not found")
			return
		}
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}
	utils.WriteSuccessResponse(w, map[string]interface{}{"event": event})
}

// UpdateEventDate 修改活动日期（仅主办者本人）
// PUT /api/events/{id}/date
func (h *CatalogHandler) UpdateEventDate(w http.ResponseWriter, r *http.Request) {
	h.updateGoverningDate(w, r, models.KindEvent)
}

// updateGoverningDate 三种实体的日期编辑共用一条路径：
// 鉴权 → 校验归属 → 校验日期 → 更新。已存在的预订不动，
// 提醒扫描会自动跟上新日期
func (h *CatalogHandler) updateGoverningDate(w http.ResponseWriter, r *http.Request, kind models.Kind) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Authentication required")
		return
	}

	id, err := utils.ParseInt64Param(chiRoute.URLParam(r, "id"))
	if err != nil {
		utils.WriteBadRequestResponse(w, "Invalid entity id")
		return
	}

	var req struct {
		Date string `json:"date"`
	}
	if err := utils.ParseJSONBody(r, &req); err != nil {
		utils.WriteBadRequestResponse(w, "Invalid request body")
		return
	}
	if !models.ValidDate(req.Date) {
		utils.WriteValidationErrorResponse(w, "Invalid date, expected YYYY-MM-DD", req.Date)
		return
	}

	owner, err := h.db.GetEntityOwner(kind, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			utils.WriteNotFoundResponse(w, "Entity not found")
			return
		}
		utils.WriteInternalServerErrorResponse(w, err.Error())
		return
	}
	if owner != user.ID {
		utils.WriteForbiddenResponse(w, "Only the owner can edit this entity")
		return
	}

	switch kind {
	case models.KindResource:
		err = h.db.UpdateResourceAvailability(id, req.Date)
	case models.KindSpace:
		err = h.db.UpdateSpaceAvailability(id, req.Date)
	default:
		err = h.db.UpdateEventDate(id, req.Date)
	}
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to update date: "+err.Error())
		return
	}

	utils.WriteSuccessResponse(w, map[string]interface{}{"updated": true, "date": req.Date})
}
