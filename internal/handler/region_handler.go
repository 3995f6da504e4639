package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"basecode-go/pkg/model"
)

// RegionService is the region data access the pages need
type RegionService interface {
	Find(ctx context.Context, id int) (*model.Region, error)
	FindRegions(ctx context.Context, search model.RegionSearch) (*model.PaginatedList[model.Region], error)
	Create(ctx context.Context, region *model.Region) error
	Update(ctx context.Context, region model.Region) (*model.UpdateRegionResult, error)
	DeleteByID(ctx context.Context, id int) error
	GetRegionDropdownItems(ctx context.Context, selected string) ([]model.SelectListItem, error)
}

// RegionRules holds the business checks run before writes
type RegionRules interface {
	CanAdd(ctx context.Context, region *model.Region) (*model.ValidationResult, error)
	CanUpdate(ctx context.Context, region *model.Region) (*model.ValidationResult, error)
	CanDelete(ctx context.Context, id int) (*model.ValidationResult, error)
}

// RegionHandler serves the region administration pages
type RegionHandler struct {
	regions  RegionService
	rules    RegionRules
	reporter *ErrorReporter
	logger   *zap.Logger
}

// NewRegionHandler creates a new region handler
func NewRegionHandler(regions RegionService, rules RegionRules, reporter *ErrorReporter, logger *zap.Logger) *RegionHandler {
	registerValidation()
	return &RegionHandler{
		regions:  regions,
		rules:    rules,
		reporter: reporter,
		logger:   logger.Named("region"),
	}
}

// RegisterRoutes registers the region routes on an authenticated group
func (h *RegionHandler) RegisterRoutes(router gin.IRoutes) {
	router.GET("/Region/List", h.List)
	router.POST("/Region/List", h.List)
	router.GET("/Region/Create", h.Create)
	router.POST("/Region/Create", h.CreatePost)
	router.GET("/Region/Edit/:id", h.Edit)
	router.POST("/Region/Edit", h.EditPost)
	router.GET("/Region/Delete", h.Delete)
	router.POST("/Region/Delete/:id", h.DeletePost)
}

// RegisterAPIRoutes registers the public region dropdown endpoint
func (h *RegionHandler) RegisterAPIRoutes(router gin.IRoutes) {
	router.GET("/api/regions", h.GetRegions)
}

type regionColumn struct {
	Name  string
	Label string
}

var regionColumns = []regionColumn{
	{Name: "RegionName", Label: "Region"},
	{Name: "RegionCode", Label: "Region Code"},
	{Name: "RegionKey", Label: "Region Key"},
	{Name: "Description", Label: "Description"},
}

type regionListData struct {
	Search  model.RegionSearch
	List    *model.PaginatedList[model.Region]
	Columns []regionColumn
}

type regionFormData struct {
	Form model.RegionForm
}

type regionDeleteData struct {
	ID   int
	Name string
}

// List handles GET and POST /Region/List
func (h *RegionHandler) List(c *gin.Context) {
	var search model.RegionSearch
	// unparsable paging values fall back to the defaults
	_ = c.ShouldBind(&search)
	search.Normalize()

	data := &regionListData{Search: search, Columns: regionColumns}
	page := newPage(c, "Regions", data)

	list, err := h.regions.FindRegions(c.Request.Context(), search)
	if err != nil {
		page.AddError(h.reporter.Report(c, err))
		c.HTML(http.StatusOK, "region/list", page)
		return
	}

	data.List = list
	c.HTML(http.StatusOK, "region/list", page)
}

// Create handles GET /Region/Create
func (h *RegionHandler) Create(c *gin.Context) {
	c.HTML(http.StatusOK, "region/create", newPage(c, "Create", &regionFormData{}))
}

// CreatePost handles POST /Region/Create
func (h *RegionHandler) CreatePost(c *gin.Context) {
	data := &regionFormData{}
	page := newPage(c, "Create", data)

	if err := c.ShouldBind(&data.Form); err != nil {
		addBindingErrors(page, err)
		c.HTML(http.StatusOK, "region/create", page)
		return
	}

	// a region deleted during an edit is saved again as a new record
	if data.Form.IsNew {
		data.Form.RegionID = 0
		data.Form.RowVersion = ""
	}
	region := data.Form.ToRegion()

	result, err := h.rules.CanAdd(c.Request.Context(), &region)
	if err == nil && result == nil {
		err = h.regions.Create(c.Request.Context(), &region)
		if err == nil {
			h.logger.Info("region created", zap.Int("region_id", region.RegionID), zap.String("region_name", region.RegionName))
			setFlash(c, model.MessageInfo, model.RecordSuccessAdd)
			c.Redirect(http.StatusFound, "/Region/List")
			return
		}
	}

	if err != nil {
		page.AddError(h.reporter.Report(c, err))
		page.AddError(model.ErrorInvalidCreation)
	} else {
		page.AddValidationResults(*result)
	}
	c.HTML(http.StatusOK, "region/create", page)
}

// Edit handles GET /Region/Edit/:id
func (h *RegionHandler) Edit(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		setFlash(c, model.MessageError, model.ErrorRecordNotExists)
		c.Redirect(http.StatusFound, "/Region/List")
		return
	}

	region, err := h.regions.Find(c.Request.Context(), id)
	if err != nil {
		renderError(c, http.StatusInternalServerError, h.reporter.Report(c, err))
		return
	}
	if region == nil {
		setFlash(c, model.MessageError, model.ErrorRecordNotExists)
		c.Redirect(http.StatusFound, "/Region/List")
		return
	}

	c.HTML(http.StatusOK, "region/edit", newPage(c, "Edit", &regionFormData{Form: model.NewRegionForm(*region)}))
}

// EditPost handles POST /Region/Edit
func (h *RegionHandler) EditPost(c *gin.Context) {
	data := &regionFormData{}
	page := newPage(c, "Edit", data)

	if err := c.ShouldBind(&data.Form); err != nil {
		addBindingErrors(page, err)
		c.HTML(http.StatusOK, "region/edit", page)
		return
	}
	if data.Form.RegionID == 0 {
		page.AddError(model.ErrorInvalidUpdate)
		c.HTML(http.StatusOK, "region/edit", page)
		return
	}

	ctx := c.Request.Context()
	err := h.update(ctx, c, page, data)
	if err == nil {
		return
	}

	page.AddError(h.reporter.Report(c, err))
	page.AddError(model.ErrorInvalidUpdate)
	c.HTML(http.StatusOK, "region/edit", page)
}

// update runs the edit; a nil error means a response was written
func (h *RegionHandler) update(ctx context.Context, c *gin.Context, page *Page, data *regionFormData) error {
	current, err := h.regions.Find(ctx, data.Form.RegionID)
	if err != nil {
		return err
	}
	if current == nil {
		data.Form.IsNew = true
		page.AddError(model.RegionDeletedOnEdit)
		c.HTML(http.StatusOK, "region/edit", page)
		return nil
	}

	region := data.Form.ToRegion()
	result, err := h.rules.CanUpdate(ctx, &region)
	if err != nil {
		return err
	}
	if result != nil {
		page.AddValidationResults(*result)
		c.HTML(http.StatusOK, "region/edit", page)
		return nil
	}

	updated, err := h.regions.Update(ctx, region)
	if err != nil {
		return err
	}
	if !updated.Succeeded() {
		page.AddValidationResults(updated.ValidationResults...)
		// the stored version lets the next post-back overwrite
		data.Form.RowVersion = model.EncodeRowVersion(updated.RowVersion)
		c.HTML(http.StatusOK, "region/edit", page)
		return nil
	}

	h.logger.Info("region updated", zap.Int("region_id", region.RegionID), zap.Int64("row_version", updated.RowVersion))
	setFlash(c, model.MessageInfo, model.RecordSuccessUpdate)
	c.Redirect(http.StatusFound, "/Region/List")
	return nil
}

// Delete handles GET /Region/Delete and returns the confirmation partial
func (h *RegionHandler) Delete(c *gin.Context) {
	id, _ := strconv.Atoi(c.Query("id"))
	c.HTML(http.StatusOK, "region/_delete", newPartial(c, "Delete", &regionDeleteData{ID: id, Name: c.Query("name")}))
}

// DeletePost handles POST /Region/Delete/:id
func (h *RegionHandler) DeletePost(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		setFlash(c, model.MessageError, model.ErrorInvalidDelete)
		c.Redirect(http.StatusFound, "/Region/List")
		return
	}

	ctx := c.Request.Context()
	result, err := h.rules.CanDelete(ctx, id)
	if err == nil && result == nil {
		err = h.regions.DeleteByID(ctx, id)
		if err == nil {
			h.logger.Info("region deleted", zap.Int("region_id", id))
			setFlash(c, model.MessageInfo, model.RecordSuccessDelete)
			c.Redirect(http.StatusFound, "/Region/List")
			return
		}
	}

	message := model.ErrorInvalidDelete
	switch {
	case err != nil:
		message = h.reporter.Report(c, err)
	case result != nil:
		message = result.Message
	}
	setFlash(c, model.MessageError, message)
	c.Redirect(http.StatusFound, "/Region/List")
}

// GetRegions handles GET /api/regions
func (h *RegionHandler) GetRegions(c *gin.Context) {
	items, err := h.regions.GetRegionDropdownItems(c.Request.Context(), c.Query("selected"))
	if err != nil {
		h.logger.Error("failed to fetch regions", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch regions"})
		return
	}
	c.JSON(http.StatusOK, items)
}
