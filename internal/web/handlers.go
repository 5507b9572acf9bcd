package web

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"

	"deployment-portal/backend/internal/access"
	"deployment-portal/backend/internal/api"
	"deployment-portal/backend/internal/auth"
	"deployment-portal/backend/internal/forms"
	"deployment-portal/backend/internal/metrics"
	"deployment-portal/backend/internal/services"
	"deployment-portal/backend/internal/session"
	"deployment-portal/backend/pkg/models"
)

// Register mounts the pages on e and installs p as its renderer.
func (p *Pages) Register(e *echo.Echo) {
	e.Renderer = p

	e.GET("/login", p.loginPage)
	e.POST("/login", p.login)
	e.POST("/logout", p.logout)

	g := e.Group("", p.auth.RequireAuth)
	g.GET("/", p.dashboard)
	g.POST("/alerts/:id/dismiss", p.dismissAlert)

	up := g.Group("/upload", auth.RequireRole(access.Upload))
	up.GET("", p.uploadPage)
	up.POST("", p.submitUpload)
	up.POST("/files", p.addFiles)
	up.POST("/files/:id/remove", p.removeFile)

	cab := g.Group("/cab", auth.RequireRole(access.CAB))
	cab.GET("", p.cabPage)
	cab.POST("/:id/decision", p.submitDecision)

	g.GET("/security", p.securityPage, auth.RequireRole(access.Security))
	g.GET("/notifications", p.notificationsPage, auth.RequireRole(access.Notifications))
}

func (p *Pages) view(c echo.Context, page access.Page, title string, data any) (View, session.View) {
	st, _ := session.FromContext(c.Request().Context())
	snap := st.Snapshot()
	v := View{
		Title:  title,
		Active: page,
		User:   &snap.User,
		Nav:    nav(snap.User.Role, page),
		Data:   data,
	}
	if msg, ok := snap.Banners[page]; ok {
		v.Banner = &msg
	}
	return v, snap
}

func (p *Pages) render(c echo.Context, code int, page access.Page, title string, data any) error {
	v, snap := p.view(c, page, title, data)
	if c.Request().Method == http.MethodGet {
		metrics.PageView(string(page), string(snap.User.Role))
	}
	return c.Render(code, string(page), v)
}

func currentState(c echo.Context) *session.State {
	st, _ := session.FromContext(c.Request().Context())
	return st
}

// loginData is the sign-in form.
type loginData struct {
	Email string
	Role  string
	Roles []roleOption
	Error string
}

type roleOption struct {
	Value    models.Role
	Label    string
	Selected bool
}

func newLoginData(email, role, errMsg string) loginData {
	d := loginData{Email: email, Role: role, Error: errMsg}
	for _, r := range models.AllRoles {
		d.Roles = append(d.Roles, roleOption{Value: r, Label: r.Label(), Selected: string(r) == role})
	}
	return d
}

// LoginRequest is the sign-in body for form posts and JSON clients.
type LoginRequest struct {
	Email string `json:"email" form:"email"`
	Role  string `json:"role" form:"role"`
}

func (p *Pages) loginPage(c echo.Context) error {
	if _, ok := p.auth.Current(c); ok {
		return c.Redirect(http.StatusSeeOther, "/")
	}
	return c.Render(http.StatusOK, "login", View{Title: "Sign in", Data: newLoginData("", "", "")})
}

func (p *Pages) login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	st, err := p.auth.SignIn(c, req.Email, req.Role)
	wantsJSON := strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials) && wantsJSON:
		return c.JSON(http.StatusBadRequest, api.Problem(err))
	case errors.Is(err, auth.ErrInvalidCredentials):
		return c.Render(http.StatusBadRequest, "login", View{
			Title: "Sign in",
			Data:  newLoginData(req.Email, req.Role, "Please enter a valid email address and choose your role."),
		})
	case err != nil:
		return err
	case wantsJSON:
		return c.JSON(http.StatusOK, st.User())
	default:
		return c.Redirect(http.StatusSeeOther, "/")
	}
}

func (p *Pages) logout(c echo.Context) error {
	p.auth.SignOut(c)
	return c.Redirect(http.StatusSeeOther, "/login")
}

func (p *Pages) dashboard(c echo.Context) error {
	d, err := p.portal.Dashboard(c.Request().Context(), currentState(c))
	if err != nil {
		return err
	}
	return p.render(c, http.StatusOK, access.PageDashboard, "Dashboard", d)
}

func (p *Pages) dismissAlert(c echo.Context) error {
	if err := p.portal.DismissAlert(c.Request().Context(), currentState(c), c.Param("id")); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/")
}

const (
	tabUpload        = "upload"
	tabHistory       = "history"
	tabNotifications = "notifications"
	tabWorkflows     = "workflows"
)

func tab(c echo.Context, tabs ...string) string {
	t := c.QueryParam("tab")
	for _, candidate := range tabs {
		if t == candidate {
			return t
		}
	}
	return tabs[0]
}

// uploadData backs the upload page.
type uploadData struct {
	Tab         string
	Form        forms.UploadForm
	Invalid     map[string]bool
	Files       []models.UploadedFile
	Submitting  bool
	// CanSubmit covers the file half of the form; required inputs cover the text fields.
	CanSubmit   bool
	ChangeTypes []forms.ChangeType
	Priorities  []models.Priority
	Accept      string
	History     *services.Listing[models.Upload]
	Filter      FilterBar
	Empty       string
}

var uploadFacets = []facetSpec{
	statusFacet(models.UploadPendingApproval, models.UploadInReview, models.UploadApproved, models.UploadRejected, models.UploadDeployed),
	priorityFacet,
}

func (p *Pages) uploadPage(c echo.Context) error {
	return p.renderUpload(c, http.StatusOK, forms.UploadForm{Priority: models.PriorityMedium, ChangeType: forms.ChangeFeature}, nil)
}

func (p *Pages) renderUpload(c echo.Context, code int, form forms.UploadForm, invalid []string) error {
	st := currentState(c)
	q := queryFrom(c, uploadFacets...)
	history, err := p.portal.Uploads(c.Request().Context(), st, q)
	if err != nil {
		return err
	}
	snap := st.Snapshot()
	form.Files = snap.Files
	d := uploadData{
		Tab:         tab(c, tabUpload, tabHistory),
		Form:        form,
		Invalid:     make(map[string]bool),
		Files:       snap.Files,
		Submitting:  snap.Submitting[access.PageUpload],
		ChangeTypes: forms.ChangeTypes,
		Priorities:  []models.Priority{models.PriorityLow, models.PriorityMedium, models.PriorityHigh, models.PriorityCritical},
		Accept:      strings.Join(forms.AcceptedExtensions, ","),
		History:     history,
		Filter:      filterBar("/upload", q, uploadFacets...),
		Empty:       emptyMessage(len(history.Items), q),
	}
	d.Filter.Tab = tabHistory
	d.CanSubmit = !d.Submitting && len(form.UploadedFiles()) > 0
	for _, f := range invalid {
		d.Invalid[f] = true
	}
	return p.render(c, code, access.PageUpload, "Upload Code", d)
}

func (p *Pages) addFiles(c echo.Context) error {
	mf, err := c.MultipartForm()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "expected a multipart upload")
	}
	st := currentState(c)
	for _, fh := range mf.File["file"] {
		if _, err := p.portal.AddFile(c.Request().Context(), st, fh.Filename, fh.Size, fh.Header.Get(echo.HeaderContentType)); err != nil {
			return err
		}
	}
	return c.Redirect(http.StatusSeeOther, "/upload")
}

func (p *Pages) removeFile(c echo.Context) error {
	if err := p.portal.RemoveFile(c.Request().Context(), currentState(c), c.Param("id")); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/upload")
}

func (p *Pages) submitUpload(c echo.Context) error {
	var form forms.UploadForm
	if err := c.Bind(&form); err != nil {
		return err
	}
	_, _, err := p.portal.SubmitUpload(c.Request().Context(), currentState(c), form)
	var invalid *forms.ValidationError
	switch {
	case errors.As(err, &invalid):
		return p.renderUpload(c, http.StatusUnprocessableEntity, form, invalid.Fields)
	case err != nil:
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/upload")
}

// cabData backs the CAB review page.
type cabData struct {
	Requests   *services.Listing[services.CABRequestView]
	Filter     FilterBar
	Empty      string
	Selected   *services.CABRequestView
	Form       forms.DecisionForm
	Invalid    map[string]bool
	Submitting bool
	Decisions  []models.Decision
}

var cabFacets = []facetSpec{
	statusFacet(models.CABPendingReview, models.CABScheduled, models.CABApproved, models.CABRejected, models.CABOnHold),
	priorityFacet,
}

func (p *Pages) cabPage(c echo.Context) error {
	return p.renderCAB(c, http.StatusOK, c.QueryParam("id"), forms.DecisionForm{}, nil)
}

func (p *Pages) renderCAB(c echo.Context, code int, selected string, form forms.DecisionForm, invalid []string) error {
	ctx := c.Request().Context()
	st := currentState(c)
	q := queryFrom(c, cabFacets...)
	list, err := p.portal.CABRequests(ctx, st, q)
	if err != nil {
		return err
	}
	d := cabData{
		Requests:   list,
		Filter:     filterBar("/cab", q, cabFacets...),
		Empty:      emptyMessage(len(list.Items), q),
		Form:       form,
		Invalid:    make(map[string]bool),
		Submitting: st.Submitting(access.PageCAB),
		Decisions:  []models.Decision{models.DecisionApproved, models.DecisionRejected, models.DecisionOnHold},
	}
	for _, f := range invalid {
		d.Invalid[f] = true
	}
	if selected != "" {
		if d.Selected, err = p.portal.CABRequest(ctx, st, selected); err != nil {
			return err
		}
	}
	return p.render(c, code, access.PageCAB, "CAB Review", d)
}

func (p *Pages) submitDecision(c echo.Context) error {
	var form forms.DecisionForm
	if err := c.Bind(&form); err != nil {
		return err
	}
	form.RequestID = c.Param("id")
	rec, _, err := p.portal.SubmitDecision(c.Request().Context(), currentState(c), form)
	var invalid *forms.ValidationError
	switch {
	case errors.As(err, &invalid):
		return p.renderCAB(c, http.StatusUnprocessableEntity, form.RequestID, form, invalid.Fields)
	case err != nil:
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/cab?id="+url.QueryEscape(rec.RequestID))
}

// securityData backs the security page.
type securityData struct {
	Tickets *services.Listing[models.SecurityTicket]
	Filter  FilterBar
	Empty   string
}

var securityFacets = []facetSpec{
	statusFacet(models.TicketPendingScan, models.TicketScanning, models.TicketVulnerabilitiesFound, models.TicketClean, models.TicketRemediationRequired),
	priorityFacet,
}

func (p *Pages) securityPage(c echo.Context) error {
	q := queryFrom(c, securityFacets...)
	list, err := p.portal.SecurityTickets(c.Request().Context(), q)
	if err != nil {
		return err
	}
	return p.render(c, http.StatusOK, access.PageSecurity, "Security", securityData{
		Tickets: list,
		Filter:  filterBar("/security", q, securityFacets...),
		Empty:   emptyMessage(len(list.Items), q),
	})
}

// notificationsData backs the notifications page.
type notificationsData struct {
	Tab           string
	Notifications *services.Listing[models.Notification]
	Filter        FilterBar
	Empty         string
	Workflows     []services.WorkflowView
}

var notificationFacets = []facetSpec{
	{models.FacetType, "Type", []string{string(models.NotificationEmail), string(models.NotificationSystem), string(models.NotificationAlert)}},
	statusFacet(models.NotificationSent, models.NotificationPending, models.NotificationFailed, models.NotificationRead, models.NotificationUnread),
	{models.FacetCategory, "Category", []string{
		string(models.CategorySecurity),
		string(models.CategoryApproval),
		string(models.CategoryDeployment),
		string(models.CategoryGeneral),
	}},
}

func (p *Pages) notificationsPage(c echo.Context) error {
	ctx := c.Request().Context()
	d := notificationsData{Tab: tab(c, tabNotifications, tabWorkflows)}

	if d.Tab == tabWorkflows {
		workflows, err := p.portal.Workflows(ctx)
		if err != nil {
			return err
		}
		d.Workflows = workflows
	} else {
		q := queryFrom(c, notificationFacets...)
		list, err := p.portal.Notifications(ctx, q)
		if err != nil {
			return err
		}
		d.Notifications = list
		d.Filter = filterBar("/notifications", q, notificationFacets...)
		d.Empty = emptyMessage(len(list.Items), q)
	}
	return p.render(c, http.StatusOK, access.PageNotifications, "Notifications", d)
}
