package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/civilmastersolution/cms-backend/internal/metrics"
	"github.com/civilmastersolution/cms-backend/internal/storage"
	"github.com/civilmastersolution/cms-backend/pkg/models"
)

// Request/Response types

// ErrorResponse is the standard error response
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// HealthResponse is the health check response
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// PartnershipRequest is the create/update payload for a partner
type PartnershipRequest struct {
	Name   string          `json:"partner_name" binding:"required"`
	Images json.RawMessage `json:"partner_image,omitempty"`
}

// CustomerRequest is the create/update payload for a reference customer
type CustomerRequest struct {
	Name   string          `json:"customer_name" binding:"required"`
	Images json.RawMessage `json:"customer_image,omitempty"`
}

// ProductRequest is the create/update payload for a catalog product
type ProductRequest struct {
	Name        string          `json:"product_name" binding:"required"`
	Images      json.RawMessage `json:"product_image,omitempty"`
	Description string          `json:"product_description,omitempty"`
	Success     json.RawMessage `json:"success,omitempty"`
	Benefit     json.RawMessage `json:"benefit,omitempty"`
	Performance json.RawMessage `json:"performance,omitempty"`
	Comments    string          `json:"comments,omitempty"`
	Position    int             `json:"position,omitempty"`
}

// ProjectRequest is the create/update payload for a project reference
type ProjectRequest struct {
	Name       string          `json:"project_name" binding:"required"`
	Images     json.RawMessage `json:"project_image,omitempty"`
	Location   string          `json:"location,omitempty"`
	SiteArea   string          `json:"site_area,omitempty"`
	DateTime   string          `json:"date_time,omitempty"`
	Contractor string          `json:"contractor,omitempty"`
	LayoutType int             `json:"layout_type,omitempty" binding:"omitempty,min=1,max=4"`
	IsFavorite bool            `json:"is_favorite,omitempty"`
	Position   int             `json:"position,omitempty"`
}

// FavoriteRequest toggles the carousel flag on a project
type FavoriteRequest struct {
	IsFavorite *bool `json:"is_favorite" binding:"required"`
}

// NewsRequest is the create/update payload for a news item
type NewsRequest struct {
	Title    string          `json:"news_title" binding:"required"`
	Images   json.RawMessage `json:"news_image,omitempty"`
	Keywords json.RawMessage `json:"keyword,omitempty"`
	Content  json.RawMessage `json:"content,omitempty"`
}

// ArticleRequest is the create/update payload for an article
type ArticleRequest struct {
	Title    string          `json:"article_title" binding:"required"`
	Images   json.RawMessage `json:"article_image,omitempty"`
	Keywords json.RawMessage `json:"keyword,omitempty"`
	Content  json.RawMessage `json:"content,omitempty"`
	Category string          `json:"category,omitempty"`
}

// LeadRequest is the public inquiry form payload. Website is a honeypot:
// hidden in the form, any value marks the submission as a bot.
type LeadRequest struct {
	FullName      string `json:"full_name" binding:"required"`
	EmailAddress  string `json:"email_address" binding:"required,email"`
	ContactNumber string `json:"contact_number,omitempty"`
	CompanyName   string `json:"company_name,omitempty"`
	Country       string `json:"country,omitempty"`
	Comments      string `json:"comments,omitempty"`
	ProductName   string `json:"product_name,omitempty"`
	Website       string `json:"website,omitempty"`
}

// LeadStatusRequest transitions a lead's handling state
type LeadStatusRequest struct {
	Status models.LeadStatus `json:"status" binding:"required,oneof=pending complete"`
}

// Health and readiness

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
	})
}

func (s *Server) handleReady(c *gin.Context) {
	if !s.IsReady() {
		c.JSON(http.StatusServiceUnavailable, HealthResponse{
			Status:    "not ready",
			Timestamp: time.Now().UTC(),
		})
		return
	}
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "ready",
		Timestamp: time.Now().UTC(),
	})
}

// Shared helpers

func (s *Server) badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:     "invalid request: " + sanitizeValidationError(err),
		RequestID: c.GetString("request_id"),
	})
}

// sanitizeValidationError converts struct field names in binding errors to
// their JSON names so responses don't leak internal identifiers.
func sanitizeValidationError(err error) string {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err.Error()
	}

	var messages []string
	for _, fe := range validationErrs {
		field := toSnakeCase(fe.Field())
		switch fe.Tag() {
		case "required":
			messages = append(messages, fmt.Sprintf("%s is required", field))
		case "min":
			messages = append(messages, fmt.Sprintf("%s must be at least %s", field, fe.Param()))
		case "max":
			messages = append(messages, fmt.Sprintf("%s must be at most %s", field, fe.Param()))
		case "email":
			messages = append(messages, fmt.Sprintf("%s must be a valid email address", field))
		case "oneof":
			messages = append(messages, fmt.Sprintf("%s must be one of: %s", field, fe.Param()))
		default:
			messages = append(messages, fmt.Sprintf("%s failed validation (%s)", field, fe.Tag()))
		}
	}
	return strings.Join(messages, "; ")
}

func toSnakeCase(s string) string {
	runes := []rune(s)
	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) {
			prevLower := i > 0 && !unicode.IsUpper(runes[i-1])
			nextLower := i+1 < len(runes) && !unicode.IsUpper(runes[i+1])
			if i > 0 && (prevLower || nextLower) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *Server) storageError(c *gin.Context, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:     "not found",
			RequestID: c.GetString("request_id"),
		})
		return
	}

	s.logger.Error("storage operation failed",
		slog.String("error", err.Error()),
		slog.String("request_id", c.GetString("request_id")))
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error:     "internal server error",
		RequestID: c.GetString("request_id"),
	})
}

func (s *Server) pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:     "invalid id",
			RequestID: c.GetString("request_id"),
		})
		return 0, false
	}
	return id, true
}

// Partnerships

func (s *Server) handleListPartnerships(c *gin.Context) {
	list, err := s.stores.Partnerships.List(c.Request.Context())
	if err != nil {
		s.storageError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"partnerships": list, "count": len(list)})
}

func (s *Server) handleGetPartnership(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}
	p, err := s.stores.Partnerships.Get(c.Request.Context(), id)
	if err != nil {
		s.storageError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) handleCreatePartnership(c *gin.Context) {
	var req PartnershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}

	p := &models.Partnership{Name: req.Name, Images: req.Images}
	if err := s.stores.Partnerships.Create(c.Request.Context(), p); err != nil {
		s.storageError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (s *Server) handleUpdatePartnership(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}

	var req PartnershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}

	p := &models.Partnership{ID: id, Name: req.Name, Images: req.Images}
	if err := s.stores.Partnerships.Update(c.Request.Context(), p); err != nil {
		s.storageError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) handleDeletePartnership(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}
	if err := s.stores.Partnerships.Delete(c.Request.Context(), id); err != nil {
		s.storageError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Customers

func (s *Server) handleListCustomers(c *gin.Context) {
	list, err := s.stores.Customers.List(c.Request.Context())
	if err != nil {
		s.storageError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"customers": list, "count": len(list)})
}

func (s *Server) handleGetCustomer(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}
	cust, err := s.stores.Customers.Get(c.Request.Context(), id)
	if err != nil {
		s.storageError(c, err)
		return
	}
	c.JSON(http.StatusOK, cust)
}

func (s *Server) handleCreateCustomer(c *gin.Context) {
	var req CustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}

	cust := &models.Customer{Name: req.Name, Images: req.Images}
	if err := s.stores.Customers.Create(c.Request.Context(), cust); err != nil {
		s.storageError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cust)
}

func (s *Server) handleUpdateCustomer(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}

	var req CustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}

	cust := &models.Customer{ID: id, Name: req.Name, Images: req.Images}
	if err := s.stores.Customers.Update(c.Request.Context(), cust); err != nil {
		s.storageError(c, err)
		return
	}
	c.JSON(http.StatusOK, cust)
}

func (s *Server) handleDeleteCustomer(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}
	if err := s.stores.Customers.Delete(c.Request.Context(), id); err != nil {
		s.storageError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Products

func (s *Server) handleListProducts(c *gin.Context) {
	list, err := s.stores.Products.List(c.Request.Context())
	if err != nil {
		s.storageError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": list, "count": len(list)})
}

func (s *Server) handleGetProduct(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}
	p, err := s.stores.Products.Get(c.Request.Context(), id)
	if err != nil {
		s.storageError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func productFromRequest(req ProductRequest) *models.Product {
	return &models.Product{
		Name:        req.Name,
		Images:      req.Images,
		Description: req.Description,
		Success:     req.Success,
		Benefit:     req.Benefit,
		Performance: req.Performance,
		Comments:    req.Comments,
		Position:    req.Position,
	}
}

func (s *Server) handleCreateProduct(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}

	p := productFromRequest(req)
	if err := s.stores.Products.Create(c.Request.Context(), p); err != nil {
		s.storageError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (s *Server) handleUpdateProduct(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}

	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}

	p := productFromRequest(req)
	p.ID = id
	if err := s.stores.Products.Update(c.Request.Context(), p); err != nil {
		s.storageError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) handleDeleteProduct(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}
	if err := s.stores.Products.Delete(c.Request.Context(), id); err != nil {
		s.storageError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Projects

func (s *Server) handleListProjects(c *gin.Context) {
	list, err := s.stores.Projects.List(c.Request.Context())
	if err != nil {
		s.storageError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": list, "count": len(list)})
}

func (s *Server) handleListFavoriteProjects(c *gin.Context) {
	list, err := s.stores.Projects.ListFavorites(c.Request.Context())
	if err != nil {
		s.storageError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": list, "count": len(list)})
}

func (s *Server) handleGetProject(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}
	p, err := s.stores.Projects.Get(c.Request.Context(), id)
	if err != nil {
		s.storageError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func projectFromRequest(req ProjectRequest) *models.ProjectReference {
	layout := req.LayoutType
	if layout == 0 {
		layout = 1
	}
	return &models.ProjectReference{
		Name:       req.Name,
		Images:     req.Images,
		Location:   req.Location,
		SiteArea:   req.SiteArea,
		DateTime:   req.DateTime,
		Contractor: req.Contractor,
		LayoutType: layout,
		IsFavorite: req.IsFavorite,
		Position:   req.Position,
	}
}

func (s *Server) handleCreateProject(c *gin.Context) {
	var req ProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}

	p := projectFromRequest(req)
	if err := s.stores.Projects.Create(c.Request.Context(), p); err != nil {
		s.storageError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (s *Server) handleUpdateProject(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}

	var req ProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}

	p := projectFromRequest(req)
	p.ID = id
	if err := s.stores.Projects.Update(c.Request.Context(), p); err != nil {
		s.storageError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) handleSetProjectFavorite(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}

	var req FavoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}

	if err := s.stores.Projects.SetFavorite(c.Request.Context(), id, *req.IsFavorite); err != nil {
		s.storageError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "is_favorite": *req.IsFavorite})
}

func (s *Server) handleDeleteProject(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}
	if err := s.stores.Projects.Delete(c.Request.Context(), id); err != nil {
		s.storageError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// News

func (s *Server) handleListNews(c *gin.Context) {
	list, err := s.stores.News.List(c.Request.Context())
	if err != nil {
		s.storageError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"news": list, "count": len(list)})
}

func (s *Server) handleGetNews(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}
	n, err := s.stores.News.Get(c.Request.Context(), id)
	if err != nil {
		s.storageError(c, err)
		return
	}
	c.JSON(http.StatusOK, n)
}

func (s *Server) handleCreateNews(c *gin.Context) {
	var req NewsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}

	n := &models.News{Title: req.Title, Images: req.Images, Keywords: req.Keywords, Content: req.Content}
	if err := s.stores.News.Create(c.Request.Context(), n); err != nil {
		s.storageError(c, err)
		return
	}
	c.JSON(http.StatusCreated, n)
}

func (s *Server) handleUpdateNews(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}

	var req NewsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}

	n := &models.News{ID: id, Title: req.Title, Images: req.Images, Keywords: req.Keywords, Content: req.Content}
	if err := s.stores.News.Update(c.Request.Context(), n); err != nil {
		s.storageError(c, err)
		return
	}
	c.JSON(http.StatusOK, n)
}

func (s *Server) handleDeleteNews(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}
	if err := s.stores.News.Delete(c.Request.Context(), id); err != nil {
		s.storageError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Articles

func (s *Server) handleListArticles(c *gin.Context) {
	list, err := s.stores.Articles.List(c.Request.Context())
	if err != nil {
		s.storageError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"articles": list, "count": len(list)})
}

func (s *Server) handleGetArticle(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}
	a, err := s.stores.Articles.Get(c.Request.Context(), id)
	if err != nil {
		s.storageError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (s *Server) handleCreateArticle(c *gin.Context) {
	var req ArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}

	a := &models.Article{Title: req.Title, Images: req.Images, Keywords: req.Keywords, Content: req.Content, Category: req.Category}
	if err := s.stores.Articles.Create(c.Request.Context(), a); err != nil {
		s.storageError(c, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

func (s *Server) handleUpdateArticle(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}

	var req ArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}

	a := &models.Article{ID: id, Title: req.Title, Images: req.Images, Keywords: req.Keywords, Content: req.Content, Category: req.Category}
	if err := s.stores.Articles.Update(c.Request.Context(), a); err != nil {
		s.storageError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (s *Server) handleDeleteArticle(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}
	if err := s.stores.Articles.Delete(c.Request.Context(), id); err != nil {
		s.storageError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Leads

func (s *Server) handleCreateLead(c *gin.Context) {
	var req LeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}

	if req.Website != "" {
		s.logger.Warn("lead honeypot triggered",
			slog.String("client_ip", c.ClientIP()),
			slog.String("request_id", c.GetString("request_id")))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:     "Spam detected",
			RequestID: c.GetString("request_id"),
		})
		return
	}

	lead := &models.Lead{
		FullName:      req.FullName,
		EmailAddress:  req.EmailAddress,
		ContactNumber: req.ContactNumber,
		CompanyName:   req.CompanyName,
		Country:       req.Country,
		Comments:      req.Comments,
		ProductName:   req.ProductName,
	}

	if err := s.stores.Leads.Create(c.Request.Context(), lead); err != nil {
		s.storageError(c, err)
		return
	}

	metrics.RecordLeadReceived()

	// Email failures are logged, never surfaced: the lead is already stored
	// and the visitor should see success.
	if s.notifier != nil {
		if err := s.notifier.SendLeadAutoReply(c.Request.Context(), lead); err != nil {
			s.logger.Warn("lead auto-reply failed",
				slog.Int64("lead_id", lead.ID),
				slog.String("error", err.Error()))
		}
		if err := s.notifier.SendLeadNotification(c.Request.Context(), lead); err != nil {
			s.logger.Warn("lead operator notification failed",
				slog.Int64("lead_id", lead.ID),
				slog.String("error", err.Error()))
		}
	}

	c.JSON(http.StatusCreated, lead)
}

func (s *Server) handleListLeads(c *gin.Context) {
	status := models.LeadStatus(c.Query("status"))
	if status != "" && status != models.LeadPending && status != models.LeadComplete {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:     "invalid status filter",
			RequestID: c.GetString("request_id"),
		})
		return
	}

	list, err := s.stores.Leads.List(c.Request.Context(), status)
	if err != nil {
		s.storageError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"leads": list, "count": len(list)})
}

func (s *Server) handleUpdateLeadStatus(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}

	var req LeadStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}

	if err := s.stores.Leads.UpdateStatus(c.Request.Context(), id, req.Status); err != nil {
		s.storageError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "status": req.Status})
}
