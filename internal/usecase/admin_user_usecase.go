package usecase

import (
	"context"
	"encoding/json"
	"net/http"

	"app/internal/domain/model"
	repo "app/internal/repository"
)

// AdminUserUsecase は管理者向けのユーザー管理です。
type AdminUserUsecase struct {
	users     repo.UserRepository
	rtRepo    repo.RefreshTokenRepository
	auditRepo repo.AuditLogRepository
}

func NewAdminUserUsecase(
	users repo.UserRepository,
	rtRepo repo.RefreshTokenRepository,
	auditRepo repo.AuditLogRepository,
) *AdminUserUsecase {
	return &AdminUserUsecase{
		users:     users,
		rtRepo:    rtRepo,
		auditRepo: auditRepo,
	}
}

type AdminUserListResponse struct {
	Items []UserDTO `json:"items"`
	Total int64     `json:"total"`
	Page  int       `json:"page"`
	Limit int       `json:"limit"`
}

// List はユーザー一覧（ページング）。
func (u *AdminUserUsecase) List(ctx context.Context, page, limit int) (AdminUserListResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	users, total, err := u.users.List(ctx, page, limit)
	if err != nil {
		return AdminUserListResponse{}, NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
	}

	items := make([]UserDTO, 0, len(users))
	for i := range users {
		items = append(items, toUserDTO(&users[i]))
	}
	return AdminUserListResponse{Items: items, Total: total, Page: page, Limit: limit}, nil
}

// SetActive はユーザーの有効/無効を切り替える。
// 無効化時はトークンバージョンを上げて強制ログアウトさせる。
func (u *AdminUserUsecase) SetActive(ctx context.Context, adminUserID, targetUserID int64, active bool) (UserDTO, error) {
	if targetUserID <= 0 {
		return UserDTO{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid id")
	}
	//自分自身は無効化できない
	if !active && adminUserID == targetUserID {
		return UserDTO{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "cannot deactivate yourself")
	}

	user, err := u.users.FindByID(ctx, targetUserID)
	if err == repo.ErrUserNotFound || user == nil {
		return UserDTO{}, NewHTTPError(http.StatusNotFound, CodeNotFound, "not found")
	}
	if err != nil {
		return UserDTO{}, NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
	}

	if user.IsActive == active {
		return toUserDTO(user), nil
	}

	before := user.IsActive
	user.IsActive = active
	if err := u.users.Update(ctx, user); err != nil {
		return UserDTO{}, NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
	}

	if !active {
		if err := u.users.IncrementTokenVersion(ctx, targetUserID); err != nil {
			return UserDTO{}, NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
		}
		_ = u.rtRepo.DeleteAllByUserID(ctx, targetUserID)
		user.TokenVersion++
	}

	beforeJSON, _ := json.Marshal(map[string]bool{"is_active": before})
	afterJSON, _ := json.Marshal(map[string]bool{"is_active": active})
	if err := u.auditRepo.Create(ctx, model.AuditLog{
		ActorUserID:  adminUserID,
		Action:       model.AuditActionUpdateUserActive,
		ResourceType: model.AuditResourceUser,
		ResourceID:   targetUserID,
		BeforeJSON:   string(beforeJSON),
		AfterJSON:    string(afterJSON),
	}); err != nil {
		return UserDTO{}, NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
	}

	return toUserDTO(user), nil
}

// ForceLogout は全端末からログアウトさせる（トークンバージョン更新 + refresh全削除）。
func (u *AdminUserUsecase) ForceLogout(ctx context.Context, adminUserID, targetUserID int64) (UserDTO, error) {
	if targetUserID <= 0 {
		return UserDTO{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid id")
	}

	user, err := u.users.FindByID(ctx, targetUserID)
	if err == repo.ErrUserNotFound || user == nil {
		return UserDTO{}, NewHTTPError(http.StatusNotFound, CodeNotFound, "not found")
	}
	if err != nil {
		return UserDTO{}, NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
	}

	if err := u.users.IncrementTokenVersion(ctx, targetUserID); err != nil {
		return UserDTO{}, NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
	}
	if err := u.rtRepo.DeleteAllByUserID(ctx, targetUserID); err != nil {
		return UserDTO{}, NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
	}

	user.TokenVersion++
	return toUserDTO(user), nil
}
