package handlers

import (
	"net/http"
	"strings"

	"recipeshare_backend/apierr"
	"recipeshare_backend/auth"
	"recipeshare_backend/response"
)

type registerInput struct {
	Email       string `json:"email" validate:"required,email"`
	Username    string `json:"username" validate:"required,min=3,max=30"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
	DisplayName string `json:"displayName" validate:"max=80"`
}

type loginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type googleInput struct {
	IDToken string `json:"idToken" validate:"required"`
}

func (a *API) register(w http.ResponseWriter, r *http.Request) {
	var in registerInput
	if err := a.decodeJSON(w, r, &in); err != nil {
		a.fail(w, r, err)
		return
	}
	res, err := a.auth.Register(r.Context(), auth.RegisterInput{
		Email:       in.Email,
		Username:    in.Username,
		Password:    in.Password,
		DisplayName: in.DisplayName,
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	response.JSON(w, http.StatusCreated, res)
}

func (a *API) login(w http.ResponseWriter, r *http.Request) {
	var in loginInput
	if err := a.decodeJSON(w, r, &in); err != nil {
		a.fail(w, r, err)
		return
	}
	res, err := a.auth.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	response.OK(w, res)
}

func (a *API) googleLogin(w http.ResponseWriter, r *http.Request) {
	var in googleInput
	if err := a.decodeJSON(w, r, &in); err != nil {
		a.fail(w, r, err)
		return
	}
	res, err := a.auth.Google(r.Context(), in.IDToken)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	response.OK(w, res)
}

func (a *API) verify(w http.ResponseWriter, r *http.Request) {
	h := r.Header.Get("Authorization")
	if len(h) <= 7 || !strings.EqualFold(h[:7], "Bearer ") {
		a.fail(w, r, apierr.Unauthorized("missing bearer token"))
		return
	}
	u, err := a.auth.Verify(r.Context(), strings.TrimSpace(h[7:]))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	u.Normalize()
	response.OK(w, u)
}
