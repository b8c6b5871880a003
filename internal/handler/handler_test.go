package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/erp-api/internal/dto"
	"github.com/noah-isme/erp-api/internal/hierarchy"
	"github.com/noah-isme/erp-api/internal/middleware"
	"github.com/noah-isme/erp-api/internal/models"
	"github.com/noah-isme/erp-api/internal/service"
	appErrors "github.com/noah-isme/erp-api/pkg/errors"
)

const testUserID = "7d5c7f43-2a41-4c36-9f2f-0d7a8f3a0001"

func newGinContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func authenticate(c *gin.Context) {
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: testUserID, Role: models.RoleManager})
}

type envelope struct {
	Data  json.RawMessage        `json:"data"`
	Meta  map[string]interface{} `json:"meta"`
	Error *struct {
		Code   string            `json:"code"`
		Fields map[string]string `json:"fields"`
	} `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var body envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

type approvalServiceStub struct {
	req     dto.RecordTransactionRequest
	actorID string
	outcome *models.ApprovalOutcome
	err     error
}

func (s *approvalServiceStub) Record(ctx context.Context, rawType, documentID string, req dto.RecordTransactionRequest, actorID string) (*models.ApprovalOutcome, error) {
	s.req = req
	s.actorID = actorID
	return s.outcome, s.err
}

func (s *approvalServiceStub) List(ctx context.Context, rawType, documentID string) (*dto.ApprovalChainResponse, error) {
	return &dto.ApprovalChainResponse{DocumentType: models.DocumentType(rawType), DocumentID: documentID}, s.err
}

func (s *approvalServiceStub) Current(ctx context.Context, rawType, documentID string) (*dto.ApprovalChainResponse, error) {
	return &dto.ApprovalChainResponse{DocumentType: models.DocumentType(rawType), DocumentID: documentID}, s.err
}

func TestApprovalHandlerRecord(t *testing.T) {
	previous := models.ApprovalApprove
	stub := &approvalServiceStub{outcome: &models.ApprovalOutcome{PreviousStatus: &previous, CurrentStatus: models.ApprovalPending}}
	h := NewApprovalHandler(stub)

	c, w := newGinContext(http.MethodPost, "/documents/rfq/doc-1/transactions", []byte(`{"status":"Pending"}`))
	c.Params = gin.Params{{Key: "type", Value: "rfq"}, {Key: "id", Value: "doc-1"}}
	authenticate(c)

	h.Record(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Pending", stub.req.Status)
	assert.Equal(t, testUserID, stub.actorID)
	assert.Equal(t, true, decode(t, w).Meta["status_regression"])
}

func TestApprovalHandlerRecordDecidedToDecidedIsNotRegression(t *testing.T) {
	previous := models.ApprovalApprove
	stub := &approvalServiceStub{outcome: &models.ApprovalOutcome{PreviousStatus: &previous, CurrentStatus: models.ApprovalReject}}
	h := NewApprovalHandler(stub)

	c, w := newGinContext(http.MethodPost, "/documents/rfq/doc-1/transactions", []byte(`{"status":"Reject"}`))
	authenticate(c)

	h.Record(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, false, decode(t, w).Meta["status_regression"])
}

func TestApprovalHandlerWrongFieldTypes(t *testing.T) {
	cases := map[string]struct {
		body  string
		field string
		msg   string
	}{
		"numeric status":   {`{"status":7}`, "status", "The status must be a string."},
		"textual order":    {`{"status":"Approve","order":"first"}`, "order", "The order must be an integer."},
		"fractional order": {`{"status":"Approve","order":1.5}`, "order", "The order must be an integer."},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			stub := &approvalServiceStub{}
			h := NewApprovalHandler(stub)
			c, w := newGinContext(http.MethodPost, "/documents/rfq/doc-1/transactions", []byte(tc.body))
			authenticate(c)

			h.Record(c)
			require.Equal(t, http.StatusUnprocessableEntity, w.Code)
			body := decode(t, w)
			require.NotNil(t, body.Error)
			assert.Equal(t, appErrors.ErrValidation.Code, body.Error.Code)
			assert.Equal(t, tc.msg, body.Error.Fields[tc.field])
			assert.Empty(t, stub.actorID, "service must not be called")
		})
	}
}

func TestApprovalHandlerRecordValidationError(t *testing.T) {
	stub := &approvalServiceStub{err: appErrors.FieldError("status", "The selected status is invalid.")}
	h := NewApprovalHandler(stub)

	c, w := newGinContext(http.MethodPost, "/documents/rfq/doc-1/transactions", []byte(`{"status":"Maybe"}`))
	authenticate(c)

	h.Record(c)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	body := decode(t, w)
	require.NotNil(t, body.Error)
	assert.Equal(t, "The selected status is invalid.", body.Error.Fields["status"])
}

func TestApprovalHandlerRequiresUser(t *testing.T) {
	h := NewApprovalHandler(&approvalServiceStub{})
	c, w := newGinContext(http.MethodPost, "/documents/rfq/doc-1/transactions", []byte(`{}`))

	h.Record(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestApprovalHandlerMalformedBody(t *testing.T) {
	h := NewApprovalHandler(&approvalServiceStub{})
	c, w := newGinContext(http.MethodPost, "/documents/rfq/doc-1/transactions", []byte(`{"status":`))
	authenticate(c)

	h.Record(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

type documentServiceStub struct {
	filter models.DocumentFilter
	format string
	hit    bool
}

func (s *documentServiceStub) List(ctx context.Context, rawType string, filter models.DocumentFilter) ([]models.Document, *models.Pagination, error) {
	s.filter = filter
	return []models.Document{}, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize}, nil
}

func (s *documentServiceStub) Get(ctx context.Context, rawType, id string) (*models.Document, bool, error) {
	return &models.Document{ID: id}, s.hit, nil
}

func (s *documentServiceStub) Create(ctx context.Context, rawType string, req dto.DocumentRequest, actorID string) (*models.Document, error) {
	return &models.Document{Number: req.Number}, nil
}

func (s *documentServiceStub) Update(ctx context.Context, rawType, id string, req dto.DocumentRequest, actorID string) (*models.Document, error) {
	return &models.Document{ID: id}, nil
}

func (s *documentServiceStub) Delete(ctx context.Context, rawType, id, actorID string) error {
	return nil
}

func (s *documentServiceStub) Export(ctx context.Context, rawType, rawFormat string, filter models.DocumentFilter) (*dto.ExportFile, error) {
	s.format = rawFormat
	return &dto.ExportFile{Filename: "rfq.csv", ContentType: "text/csv", Content: []byte("Number\nRFQ-1\n")}, nil
}

func TestDocumentHandlerListFilters(t *testing.T) {
	stub := &documentServiceStub{}
	h := NewDocumentHandler(stub)

	c, w := newGinContext(http.MethodGet, "/documents/rfq?status=Pending&approval_status=Approve&page=2&page_size=5", nil)
	c.Params = gin.Params{{Key: "type", Value: "rfq"}}

	h.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Pending", stub.filter.Status)
	assert.Equal(t, "Approve", stub.filter.ApprovalStatus)
	assert.Equal(t, 2, stub.filter.Page)
	assert.Equal(t, 5, stub.filter.PageSize)
}

func TestDocumentHandlerGetReportsCacheHit(t *testing.T) {
	h := NewDocumentHandler(&documentServiceStub{hit: true})

	c, w := newGinContext(http.MethodGet, "/documents/rfq/doc-1", nil)
	c.Params = gin.Params{{Key: "type", Value: "rfq"}, {Key: "id", Value: "doc-1"}}

	h.Get(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w).Meta["cache_hit"])
}

func TestDocumentHandlerExport(t *testing.T) {
	stub := &documentServiceStub{}
	h := NewDocumentHandler(stub)

	c, w := newGinContext(http.MethodGet, "/documents/rfq/export?format=csv", nil)
	c.Params = gin.Params{{Key: "type", Value: "rfq"}}

	h.Export(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "csv", stub.format)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "rfq.csv")
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
}

type userServiceStub struct {
	parentID *string
	updated  *dto.UpdateUserRequest
	err      error
}

func (s *userServiceStub) List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	return nil, nil, nil
}

func (s *userServiceStub) Get(ctx context.Context, id string) (*models.User, error) {
	return &models.User{ID: id}, nil
}

func (s *userServiceStub) Create(ctx context.Context, req dto.CreateUserRequest, actorID string, meta models.LoginRequest) (*models.User, error) {
	return &models.User{Email: req.Email}, nil
}

func (s *userServiceStub) Update(ctx context.Context, id string, req dto.UpdateUserRequest, actorID string, meta models.LoginRequest) (*models.User, error) {
	s.updated = &req
	return &models.User{ID: id}, nil
}

func (s *userServiceStub) AssignParent(ctx context.Context, id string, parentID *string, actorID string, meta models.LoginRequest) ([]hierarchy.Change, error) {
	s.parentID = parentID
	if s.err != nil {
		return nil, s.err
	}
	level := 1
	return []hierarchy.Change{{ID: id, Level: &level}}, nil
}

func (s *userServiceStub) Subordinates(ctx context.Context, id string) ([]models.Subordinate, bool, error) {
	return nil, false, nil
}

func (s *userServiceStub) RebuildHierarchy(ctx context.Context, actorID string, meta models.LoginRequest) ([]hierarchy.Change, []hierarchy.Violation, error) {
	return []hierarchy.Change{{ID: "u-1"}}, nil, nil
}

func (s *userServiceStub) CheckHierarchy(ctx context.Context) ([]hierarchy.Violation, error) {
	return nil, nil
}

func (s *userServiceStub) Delete(ctx context.Context, id string, actorID string, meta models.LoginRequest) error {
	return nil
}

func userUpdateRouter(stub *userServiceStub, role models.UserRole) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: testUserID, Role: role})
	})
	r.PUT("/users/:id", middleware.RBAC(string(models.RoleAdmin), middleware.Self), NewUserHandler(stub).Update)
	return r
}

func TestUserHandlerSelfUpdateCannotEscalate(t *testing.T) {
	bodies := map[string]string{
		"role":          `{"role":"SUPERADMIN"}`,
		"active":        `{"active":true}`,
		"parent_id":     `{"parent_id":"7d5c7f43-2a41-4c36-9f2f-0d7a8f3a0002"}`,
		"department_id": `{"department_id":"7d5c7f43-2a41-4c36-9f2f-0d7a8f3a0003"}`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			stub := &userServiceStub{}
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPut, "/users/"+testUserID, bytes.NewBufferString(body))
			req.Header.Set("Content-Type", "application/json")
			userUpdateRouter(stub, models.RoleStaff).ServeHTTP(w, req)

			assert.Equal(t, http.StatusForbidden, w.Code)
			assert.Nil(t, stub.updated)
		})
	}
}

func TestUserHandlerSelfUpdateProfile(t *testing.T) {
	stub := &userServiceStub{}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/users/"+testUserID, bytes.NewBufferString(`{"full_name":"Rina Hartono"}`))
	req.Header.Set("Content-Type", "application/json")
	userUpdateRouter(stub, models.RoleStaff).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, stub.updated)
	assert.Equal(t, "Rina Hartono", stub.updated.FullName)
}

func TestUserHandlerAdminMayChangeRole(t *testing.T) {
	stub := &userServiceStub{}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/users/7d5c7f43-2a41-4c36-9f2f-0d7a8f3a0009", bytes.NewBufferString(`{"role":"MANAGER"}`))
	req.Header.Set("Content-Type", "application/json")
	userUpdateRouter(stub, models.RoleAdmin).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, stub.updated)
	assert.Equal(t, "MANAGER", stub.updated.Role)
}

func TestUserHandlerAdminCannotGrantSuperadmin(t *testing.T) {
	stub := &userServiceStub{}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/users/"+testUserID, bytes.NewBufferString(`{"role":"SUPERADMIN"}`))
	req.Header.Set("Content-Type", "application/json")
	userUpdateRouter(stub, models.RoleAdmin).ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Nil(t, stub.updated)
}

func TestUserHandlerStaffCannotUpdateOthers(t *testing.T) {
	stub := &userServiceStub{}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/users/7d5c7f43-2a41-4c36-9f2f-0d7a8f3a0009", bytes.NewBufferString(`{"full_name":"X"}`))
	req.Header.Set("Content-Type", "application/json")
	userUpdateRouter(stub, models.RoleStaff).ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Nil(t, stub.updated)
}

func TestUserHandlerAssignParentToRoot(t *testing.T) {
	stub := &userServiceStub{}
	h := NewUserHandler(stub)

	c, w := newGinContext(http.MethodPut, "/users/u-1/parent", []byte(`{"parent_id":null}`))
	c.Params = gin.Params{{Key: "id", Value: "u-1"}}
	authenticate(c)

	h.AssignParent(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, stub.parentID)
	assert.EqualValues(t, 1, decode(t, w).Meta["updated"])
}

func TestUserHandlerAssignParentCycle(t *testing.T) {
	stub := &userServiceStub{err: appErrors.FieldError("parent_id", "The parent_id would create a cycle in the reporting hierarchy.")}
	h := NewUserHandler(stub)

	c, w := newGinContext(http.MethodPut, "/users/u-1/parent", []byte(`{"parent_id":"u-2"}`))
	c.Params = gin.Params{{Key: "id", Value: "u-1"}}
	authenticate(c)

	h.AssignParent(c)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, decode(t, w).Error.Fields["parent_id"], "cycle")
}

func TestUserHandlerRebuildHierarchy(t *testing.T) {
	h := NewUserHandler(&userServiceStub{})

	c, w := newGinContext(http.MethodPost, "/hierarchy/rebuild", nil)
	authenticate(c)

	h.RebuildHierarchy(c)
	require.Equal(t, http.StatusOK, w.Code)
	var data struct {
		Summary dto.HierarchyRebuildResult `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &data))
	assert.Equal(t, 1, data.Summary.Updated)
}

type attachmentServiceStub struct {
	upload service.AttachmentUpload
	body   []byte
	file   *os.File
}

func (s *attachmentServiceStub) Upload(ctx context.Context, rawType, documentID string, upload service.AttachmentUpload, actorID string) (*dto.AttachmentResponse, error) {
	s.upload = upload
	buf := new(bytes.Buffer)
	_, _ = buf.ReadFrom(upload.Content)
	s.body = buf.Bytes()
	return &dto.AttachmentResponse{DownloadURL: "/api/v1/attachments/a-1/download?token=t"}, nil
}

func (s *attachmentServiceStub) List(ctx context.Context, rawType, documentID string) ([]dto.AttachmentResponse, error) {
	return nil, nil
}

func (s *attachmentServiceStub) Download(ctx context.Context, id, token string) (*service.FileDownload, error) {
	if token != "good" {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	return &service.FileDownload{File: s.file, Filename: "quote.txt", MimeType: "text/plain", SizeBytes: 4, ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (s *attachmentServiceStub) Delete(ctx context.Context, id, actorID string) error {
	return nil
}

func TestAttachmentHandlerUpload(t *testing.T) {
	stub := &attachmentServiceStub{}
	h := NewAttachmentHandler(stub)

	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)
	require.NoError(t, writer.WriteField("kind", "document"))
	part, err := writer.CreateFormFile("file", "quote.txt")
	require.NoError(t, err)
	_, _ = part.Write([]byte("quote"))
	require.NoError(t, writer.Close())

	c, w := newGinContext(http.MethodPost, "/documents/rfq/doc-1/attachments", body.Bytes())
	c.Request.Header.Set("Content-Type", writer.FormDataContentType())
	c.Params = gin.Params{{Key: "type", Value: "rfq"}, {Key: "id", Value: "doc-1"}}
	authenticate(c)

	h.Upload(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "document", stub.upload.Kind)
	assert.Equal(t, "quote.txt", stub.upload.Filename)
	assert.Equal(t, "quote", string(stub.body))
}

func TestAttachmentHandlerUploadRequiresFile(t *testing.T) {
	h := NewAttachmentHandler(&attachmentServiceStub{})

	c, w := newGinContext(http.MethodPost, "/documents/rfq/doc-1/attachments", nil)
	authenticate(c)

	h.Upload(c)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "The file field is required.", decode(t, w).Error.Fields["file"])
}

func TestAttachmentHandlerDownload(t *testing.T) {
	file, err := os.CreateTemp(t.TempDir(), "attachment*.txt")
	require.NoError(t, err)
	_, _ = file.WriteString("data")
	_, _ = file.Seek(0, 0)

	h := NewAttachmentHandler(&attachmentServiceStub{file: file})

	c, w := newGinContext(http.MethodGet, "/attachments/a-1/download?token=good", nil)
	c.Params = gin.Params{{Key: "id", Value: "a-1"}}
	h.Download(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "data", w.Body.String())

	c, w = newGinContext(http.MethodGet, "/attachments/a-1/download?token=bad", nil)
	h.Download(c)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

type reportServiceStub struct{}

func (reportServiceStub) BalanceSheet(ctx context.Context, req dto.BalanceSheetRequest) (*dto.GeneratedFile, error) {
	return &dto.GeneratedFile{Filename: "balance_sheet.pdf", URL: "/api/v1/reports/download?token=t"}, nil
}

func (reportServiceStub) Quotation(ctx context.Context, rfqID string, req dto.QuotationRequest) (*dto.GeneratedFile, error) {
	return nil, appErrors.Clone(appErrors.ErrNotFound, "document not found")
}

func (reportServiceStub) ResolveDownload(ctx context.Context, token string) (*service.FileDownload, error) {
	return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
}

func TestReportHandlerBalanceSheet(t *testing.T) {
	h := NewReportHandler(reportServiceStub{})

	c, w := newGinContext(http.MethodPost, "/reports/balance-sheet", []byte(`{"as_of":"2024-12-31","assets":[{"label":"Cash","amount":"10"}]}`))
	h.BalanceSheet(c)
	require.Equal(t, http.StatusCreated, w.Code)
}

func TestReportHandlerQuotationMissingRFQ(t *testing.T) {
	h := NewReportHandler(reportServiceStub{})

	c, w := newGinContext(http.MethodPost, "/documents/rfq/x/quotation", []byte(`{"vendor":{"name":"CV"},"items":[{"description":"Chair","quantity":"1","unit_price":"2"}]}`))
	c.Params = gin.Params{{Key: "id", Value: "x"}}
	h.Quotation(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReportHandlerQuotationRejectsOtherTypes(t *testing.T) {
	h := NewReportHandler(reportServiceStub{})

	c, w := newGinContext(http.MethodPost, "/documents/budget/x/quotation", []byte(`{}`))
	c.Params = gin.Params{{Key: "type", Value: "budget"}, {Key: "id", Value: "x"}}
	h.Quotation(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReportHandlerDownloadRequiresToken(t *testing.T) {
	h := NewReportHandler(reportServiceStub{})

	c, w := newGinContext(http.MethodGet, "/reports/download", nil)
	h.Download(c)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

type authServiceStub struct{}

func (authServiceStub) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	return nil, appErrors.ErrUnauthorized
}

func (authServiceStub) RefreshToken(ctx context.Context, req models.RefreshTokenRequest) (*models.RefreshTokenResponse, error) {
	return nil, appErrors.ErrUnauthorized
}

func (authServiceStub) Logout(ctx context.Context, refreshToken string, userID string, meta models.LoginRequest) error {
	return nil
}

func (authServiceStub) ChangePassword(ctx context.Context, userID string, req models.ChangePasswordRequest) error {
	return nil
}

func (authServiceStub) Me(ctx context.Context, userID string) (*models.UserInfo, error) {
	return &models.UserInfo{ID: userID, Role: models.RoleManager}, nil
}

func TestAuthHandlerMe(t *testing.T) {
	h := NewAuthHandler(authServiceStub{})

	c, w := newGinContext(http.MethodGet, "/auth/me", nil)
	authenticate(c)
	h.Me(c)
	require.Equal(t, http.StatusOK, w.Code)
	var info models.UserInfo
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &info))
	assert.Equal(t, testUserID, info.ID)
}

func TestAuthHandlerLoginRejected(t *testing.T) {
	h := NewAuthHandler(authServiceStub{})

	c, w := newGinContext(http.MethodPost, "/auth/login", []byte(`{"email":"a@b.co","password":"secret123"}`))
	h.Login(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSchemaHandlerDescribe(t *testing.T) {
	h := NewSchemaHandler(service.NewSchemaRegistry())

	c, w := newGinContext(http.MethodGet, "/schemas/approval_transaction.rfq", nil)
	c.Params = gin.Params{{Key: "name", Value: "approval_transaction.rfq"}}
	h.Describe(c)
	require.Equal(t, http.StatusOK, w.Code)

	c, w = newGinContext(http.MethodGet, "/schemas/unknown", nil)
	c.Params = gin.Params{{Key: "name", Value: "unknown"}}
	h.Describe(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
