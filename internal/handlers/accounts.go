package handlers

import (
	"net/http"
	"strconv"

	"account_store/internal/service"

	"github.com/gin-gonic/gin"
)

const statusOK = "ok"

type registerRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Email    string `json:"email"`
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type registerResponse struct {
	Message string `json:"message"`
	ID      int    `json:"id"`
}

type loginResponse struct {
	Message string `json:"message"`
	UserID  int    `json:"user_id"`
	Token   string `json:"token"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": statusOK})
}

// @Summary      Register an account
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        input  body      registerRequest  true  "new account"
// @Success      201    {object}  registerResponse
// @Failure      400    {object}  errorResponse
// @Failure      409    {object}  errorResponse
// @Failure      500    {object}  errorResponse
// @Router       /register [post]
func (h *Handler) register(c *gin.Context) {
	var input registerRequest
	if ok := h.bindJSONOrBadRequest(c, &input); !ok {
		return
	}

	id, err := h.services.Register(c.Request.Context(), service.RegisterInput{
		Username: input.Username,
		Password: input.Password,
		Email:    input.Email,
	})
	if err != nil {
		h.writeError(c, "register_failed", err, "username", input.Username)
		return
	}

	c.JSON(http.StatusCreated, registerResponse{Message: "User registered", ID: id})
}

// @Summary      Authenticate an account
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        input  body      loginRequest  true  "credentials"
// @Success      200    {object}  loginResponse
// @Failure      400    {object}  errorResponse
// @Failure      401    {object}  errorResponse
// @Failure      500    {object}  errorResponse
// @Router       /login [post]
func (h *Handler) login(c *gin.Context) {
	var input loginRequest
	if ok := h.bindJSONOrBadRequest(c, &input); !ok {
		return
	}

	id, err := h.services.Authenticate(c.Request.Context(), input.Username, input.Password)
	if err != nil {
		h.writeError(c, "login_failed", err, "username", input.Username)
		return
	}

	token, err := h.services.GenerateToken(id)
	if err != nil {
		h.writeError(c, "token_issue_failed", err, "user_id", id)
		return
	}

	c.JSON(http.StatusOK, loginResponse{Message: "Login successful", UserID: id, Token: token})
}

// @Summary      List accounts
// @Tags         accounts
// @Security     BearerAuth
// @Produce      json
// @Param        page  query     int  false  "page number, starting at 1"
// @Success      200   {object}  service.ListResult
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /users [get]
func (h *Handler) listUsers(c *gin.Context) {
	res, err := h.services.ListAccounts(c.Request.Context(), service.ListParams{
		Page:      c.Query("page"),
		AuthToken: c.GetHeader("Authorization"),
	})
	if err != nil {
		h.writeError(c, "list_users_failed", err, "page", c.Query("page"))
		return
	}

	c.JSON(http.StatusOK, res)
}

// @Summary      Delete an account
// @Tags         accounts
// @Produce      json
// @Param        id   path      int  true  "account id"
// @Success      200  {object}  messageResponse
// @Failure      400  {object}  errorResponse
// @Failure      500  {object}  errorResponse
// @Router       /user/{id} [delete]
func (h *Handler) deleteUser(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid user id"})
		return
	}

	if err := h.services.DeleteAccount(c.Request.Context(), id); err != nil {
		h.writeError(c, "delete_user_failed", err, "user_id", id)
		return
	}

	c.JSON(http.StatusOK, messageResponse{Message: "User deleted"})
}
