package api

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"deployment-portal/backend/internal/access"
	"deployment-portal/backend/internal/async"
	"deployment-portal/backend/internal/forms"
)

// ListCABRequests returns the filtered CAB registry
// (GET /api/v1/cab-requests)
func (s *Server) ListCABRequests(c echo.Context, params RegistryParams) error {
	listing, err := s.Portal.CABRequests(c.Request().Context(), mustSession(c), params.Query())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, listing)
}

// GetCABRequest returns one CAB request with any decision recorded on it
// (GET /api/v1/cab-requests/{id})
func (s *Server) GetCABRequest(c echo.Context, id string) error {
	view, err := s.Portal.CABRequest(c.Request().Context(), mustSession(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}

// SubmitDecision queues a CAB decision
// (POST /api/v1/cab-requests/{id}/decision)
func (s *Server) SubmitDecision(c echo.Context, id string) error {
	var form forms.DecisionForm
	if err := c.Bind(&form); err != nil {
		return err
	}
	form.RequestID = id

	rec, _, err := s.Portal.SubmitDecision(c.Request().Context(), mustSession(c), form)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, rec)
}

// ListSecurityTickets returns the filtered security ticket registry
// (GET /api/v1/security-tickets)
func (s *Server) ListSecurityTickets(c echo.Context, params RegistryParams) error {
	listing, err := s.Portal.SecurityTickets(c.Request().Context(), params.Query())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, listing)
}

// ListUploads returns the session's uploads followed by the upload history
// (GET /api/v1/uploads)
func (s *Server) ListUploads(c echo.Context, params RegistryParams) error {
	listing, err := s.Portal.Uploads(c.Request().Context(), mustSession(c), params.Query())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, listing)
}

// SubmitUpload queues the upload form using the files already added
// (POST /api/v1/uploads)
func (s *Server) SubmitUpload(c echo.Context) error {
	var form forms.UploadForm
	if err := c.Bind(&form); err != nil {
		return err
	}

	up, _, err := s.Portal.SubmitUpload(c.Request().Context(), mustSession(c), form)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, up)
}

// NewFile describes a file added without a multipart body.
type NewFile struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
	Type string `json:"type"`
}

// AddUploadFile adds a file to the upload form and starts its transfer.
// It accepts either a multipart "file" field or a JSON description.
// (POST /api/v1/uploads/files)
func (s *Server) AddUploadFile(c echo.Context) error {
	var nf NewFile
	if fh, err := c.FormFile("file"); err == nil {
		nf = NewFile{Name: fh.Filename, Size: fh.Size, Type: fh.Header.Get(echo.HeaderContentType)}
	} else if err := c.Bind(&nf); err != nil {
		return err
	}

	st := mustSession(c)
	f, err := s.Portal.AddFile(c.Request().Context(), st, nf.Name, nf.Size, nf.Type)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, f)
}

// RemoveUploadFile drops a file from the upload form
// (DELETE /api/v1/uploads/files/{id})
func (s *Server) RemoveUploadFile(c echo.Context, id string) error {
	if err := s.Portal.RemoveFile(c.Request().Context(), mustSession(c), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ListNotifications returns the filtered notification registry
// (GET /api/v1/notifications)
func (s *Server) ListNotifications(c echo.Context, params ListNotificationsParams) error {
	listing, err := s.Portal.Notifications(c.Request().Context(), params.Query())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, listing)
}

// ListAlerts returns the alerts the session has not dismissed
// (GET /api/v1/alerts)
func (s *Server) ListAlerts(c echo.Context) error {
	alerts, err := s.Portal.Alerts(c.Request().Context(), mustSession(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, alerts)
}

// DismissAlert hides an alert for the rest of the session
// (POST /api/v1/alerts/{id}/dismiss)
func (s *Server) DismissAlert(c echo.Context, id string) error {
	if err := s.Portal.DismissAlert(c.Request().Context(), mustSession(c), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// BannerState is a page's success banner.
type BannerState struct {
	Page    access.Page `json:"page"`
	Visible bool        `json:"visible"`
	async.Message
}

// GetBanner returns the success banner of a page
// (GET /api/v1/banners/{page})
func (s *Server) GetBanner(c echo.Context, page string) error {
	p := access.Page(page)
	if _, ok := access.ForPage(p); !ok {
		return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("unknown page %q", page))
	}
	msg, visible := s.Portal.Banner(mustSession(c), p)
	state := BannerState{Page: p, Visible: visible}
	if visible {
		state.Message = msg
	}
	return c.JSON(http.StatusOK, state)
}
