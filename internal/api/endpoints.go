package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/yungbote/learnbridge/internal/types"
)

// Typed endpoint surface. Every method decodes the wire shape at this
// boundary and hands canonical types to callers.

type LoginResult struct {
	Token string     `json:"token"`
	User  types.User `json:"-"`
}

func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	var resp struct {
		Token string         `json:"token"`
		User  types.WireUser `json:"user"`
	}
	body := map[string]string{"email": email, "password": password}
	if err := c.send(ctx, http.MethodPost, "/auth/login", body, &resp); err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Token: resp.Token, User: types.DecodeUser(resp.User)}, nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.send(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

func (c *Client) Me(ctx context.Context) (types.User, error) {
	var w types.WireUser
	if err := c.get(ctx, "/me", &w); err != nil {
		return types.User{}, err
	}
	return types.DecodeUser(w), nil
}

// --- catalog ---

func (c *Client) ListCourses(ctx context.Context) ([]types.Course, error) {
	var ws []types.WireCourse
	if err := c.get(ctx, "/courses", &ws); err != nil {
		return nil, err
	}
	return types.DecodeCourses(ws), nil
}

func (c *Client) MyCourses(ctx context.Context) ([]types.Course, error) {
	var ws []types.WireCourse
	if err := c.get(ctx, "/my/courses", &ws); err != nil {
		return nil, err
	}
	return types.DecodeCourses(ws), nil
}

func (c *Client) GetCourse(ctx context.Context, slug string) (types.Course, error) {
	var w types.WireCourse
	if err := c.get(ctx, "/courses/"+slug, &w); err != nil {
		return types.Course{}, err
	}
	return types.DecodeCourse(w), nil
}

func (c *Client) Enroll(ctx context.Context, courseID int) error {
	return c.send(ctx, http.MethodPost, "/enroll", map[string]int{"course_id": courseID}, nil)
}

func (c *Client) SaveCourse(ctx context.Context, slug string, saved bool) error {
	return c.send(ctx, http.MethodPost, "/courses/"+slug+"/save", map[string]bool{"saved": saved}, nil)
}

func (c *Client) FavouriteCourse(ctx context.Context, slug string, favourite bool) error {
	return c.send(ctx, http.MethodPost, "/courses/"+slug+"/favourite", map[string]bool{"favourite": favourite}, nil)
}

// --- progress ---

func (c *Client) GetProgress(ctx context.Context, slug string) (*types.Snapshot, error) {
	var w types.WireProgress
	if err := c.get(ctx, "/progress/course/"+slug, &w); err != nil {
		return nil, err
	}
	return types.DecodeProgress(w), nil
}

func (c *Client) CompleteLesson(ctx context.Context, unitLessonID int) error {
	body := map[string]int{"unit_lesson_id": unitLessonID}
	return c.send(ctx, http.MethodPost, "/progress/lesson/complete", body, nil)
}

func (c *Client) RecordResume(ctx context.Context, slug string, unitID, lessonID int) error {
	body := map[string]int{"unit_id": unitID, "lesson_id": lessonID}
	return c.send(ctx, http.MethodPost, "/progress/course/"+slug+"/resume", body, nil)
}

func (c *Client) ResetProgress(ctx context.Context, courseID int) error {
	return c.send(ctx, http.MethodPost, "/progress/reset", map[string]int{"course_id": courseID}, nil)
}

func (c *Client) GetCertificate(ctx context.Context, slug string) (types.Certificate, error) {
	var w types.WireCertificate
	if err := c.get(ctx, "/certificates/course/"+slug, &w); err != nil {
		return types.Certificate{}, err
	}
	return types.DecodeCertificate(w), nil
}

// --- xp / activity ---

func (c *Client) XPTransactions(ctx context.Context) ([]types.XPTransaction, error) {
	var ws []types.WireXPTransaction
	if err := c.get(ctx, "/xp/transactions", &ws); err != nil {
		return nil, err
	}
	out := make([]types.XPTransaction, 0, len(ws))
	for _, w := range ws {
		out = append(out, types.DecodeXPTransaction(w))
	}
	return out, nil
}

func (c *Client) UnseenMilestones(ctx context.Context) ([]types.XPMilestone, error) {
	var ws []types.WireXPMilestone
	if err := c.get(ctx, "/xp/milestones/unseen", &ws); err != nil {
		return nil, err
	}
	out := make([]types.XPMilestone, 0, len(ws))
	for _, w := range ws {
		out = append(out, types.DecodeXPMilestone(w))
	}
	return out, nil
}

func (c *Client) MarkMilestoneSeen(ctx context.Context, id int) error {
	return c.send(ctx, http.MethodPost, fmt.Sprintf("/xp/milestones/%d/seen", id), nil, nil)
}

func (c *Client) ActivityPing(ctx context.Context) error {
	return c.send(ctx, http.MethodPost, "/activity/ping", nil, nil)
}

// --- avatar shop ---

func (c *Client) AvatarItems(ctx context.Context) ([]types.AvatarItem, error) {
	var ws []types.WireAvatarItem
	if err := c.get(ctx, "/shop/avatar-items", &ws); err != nil {
		return nil, err
	}
	out := make([]types.AvatarItem, 0, len(ws))
	for _, w := range ws {
		out = append(out, types.DecodeAvatarItem(w))
	}
	return out, nil
}

func (c *Client) PurchaseAvatarItem(ctx context.Context, id int) error {
	return c.send(ctx, http.MethodPost, fmt.Sprintf("/shop/avatar-items/%d/purchase", id), nil, nil)
}

func (c *Client) EquipAvatarItem(ctx context.Context, id int) error {
	return c.send(ctx, http.MethodPost, fmt.Sprintf("/shop/avatar-items/%d/equip", id), nil, nil)
}
