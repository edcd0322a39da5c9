package httpapi

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/authgate/internal/common"
	"github.com/dmitrijs2005/authgate/internal/server/gate"
	"github.com/dmitrijs2005/authgate/internal/server/models"
	"github.com/dmitrijs2005/authgate/internal/server/services"
)

type AuthService interface {
	SignInWithEmail(ctx context.Context, email, password string) (*services.SignInResult, error)
	SignInWithGoogle(ctx context.Context, idToken string) (*services.SignInResult, error)
	SignUpWithEmail(ctx context.Context, email, password, fullName string) (*models.UserCredential, error)
	SignUpWithGoogle(ctx context.Context, idToken string) (*models.UserCredential, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.SignInResult, error)
	SignOut(ctx context.Context, refreshToken string) error
}

type UserService interface {
	ListProfiles(ctx context.Context, page models.Page) (*models.PageResult[*models.UserProfile], error)
	Me(ctx context.Context, userID string) (*models.UserCredential, error)
	AvatarUploadURL(ctx context.Context, userID, contentType string) (*services.AvatarUpload, error)
	AvatarURL(ctx context.Context, userID string) (string, error)
}

type emailSignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type emailSignUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
}

type googleRequest struct {
	Token string `json:"token"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type avatarRequest struct {
	ContentType string `json:"contentType"`
}

type handler struct {
	auth     AuthService
	users    UserService
	resolver *ErrorResolver
}

func (h *handler) signInEmail(w http.ResponseWriter, r *http.Request) {
	var req emailSignInRequest
	if err := decode(w, r, &req); err != nil {
		h.resolver.Resolve(w, r, err)
		return
	}
	res, err := h.auth.SignInWithEmail(r.Context(), req.Email, req.Password)
	if err != nil {
		h.resolver.Resolve(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "signed in", res)
}

func (h *handler) signInGoogle(w http.ResponseWriter, r *http.Request) {
	var req googleRequest
	if err := decode(w, r, &req); err != nil {
		h.resolver.Resolve(w, r, err)
		return
	}
	res, err := h.auth.SignInWithGoogle(r.Context(), req.Token)
	if err != nil {
		h.resolver.Resolve(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "signed in", res)
}

func (h *handler) signUpEmail(w http.ResponseWriter, r *http.Request) {
	var req emailSignUpRequest
	if err := decode(w, r, &req); err != nil {
		h.resolver.Resolve(w, r, err)
		return
	}
	cred, err := h.auth.SignUpWithEmail(r.Context(), req.Email, req.Password, req.FullName)
	if err != nil {
		h.resolver.Resolve(w, r, err)
		return
	}
	writeOK(w, http.StatusCreated, "registered", cred)
}

func (h *handler) signUpGoogle(w http.ResponseWriter, r *http.Request) {
	var req googleRequest
	if err := decode(w, r, &req); err != nil {
		h.resolver.Resolve(w, r, err)
		return
	}
	cred, err := h.auth.SignUpWithGoogle(r.Context(), req.Token)
	if err != nil {
		h.resolver.Resolve(w, r, err)
		return
	}
	writeOK(w, http.StatusCreated, "registered", cred)
}

func (h *handler) refreshToken(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decode(w, r, &req); err != nil {
		h.resolver.Resolve(w, r, err)
		return
	}
	res, err := h.auth.RefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		h.resolver.Resolve(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "token refreshed", res)
}

func (h *handler) signOut(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decode(w, r, &req); err != nil {
		h.resolver.Resolve(w, r, err)
		return
	}
	if err := h.auth.SignOut(r.Context(), req.RefreshToken); err != nil {
		h.resolver.Resolve(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "signed out", nil)
}

func (h *handler) listUsers(w http.ResponseWriter, r *http.Request) {
	number, err := queryInt(r, "page", 0)
	if err != nil {
		h.resolver.Resolve(w, r, err)
		return
	}
	size, err := queryInt(r, "size", models.DefaultPageSize)
	if err != nil {
		h.resolver.Resolve(w, r, err)
		return
	}

	res, err := h.users.ListProfiles(r.Context(), models.NewPage(number, size))
	if err != nil {
		h.resolver.Resolve(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "ok", res)
}

func (h *handler) me(w http.ResponseWriter, r *http.Request) {
	p, ok := gate.PrincipalFrom(r.Context())
	if !ok {
		h.resolver.Resolve(w, r, common.Unauthorized("no principal"))
		return
	}
	cred, err := h.users.Me(r.Context(), p.ID)
	if err != nil {
		h.resolver.Resolve(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "ok", cred)
}

func (h *handler) avatarUpload(w http.ResponseWriter, r *http.Request) {
	p, ok := gate.PrincipalFrom(r.Context())
	if !ok {
		h.resolver.Resolve(w, r, common.Unauthorized("no principal"))
		return
	}
	var req avatarRequest
	if err := decode(w, r, &req); err != nil {
		h.resolver.Resolve(w, r, err)
		return
	}
	up, err := h.users.AvatarUploadURL(r.Context(), p.ID, req.ContentType)
	if err != nil {
		h.resolver.Resolve(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "upload url issued", up)
}

func (h *handler) avatar(w http.ResponseWriter, r *http.Request) {
	p, ok := gate.PrincipalFrom(r.Context())
	if !ok {
		h.resolver.Resolve(w, r, common.Unauthorized("no principal"))
		return
	}
	url, err := h.users.AvatarURL(r.Context(), p.ID)
	if err != nil {
		h.resolver.Resolve(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "ok", map[string]string{"url": url})
}

func health(w http.ResponseWriter, _ *http.Request) {
	writeOK(w, http.StatusOK, "ok", nil)
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, common.InvalidInput(name + " must be an integer")
	}
	return v, nil
}
