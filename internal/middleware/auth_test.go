package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/campuslink/alumninet/internal/models"
	"github.com/campuslink/alumninet/internal/services"
	"github.com/campuslink/alumninet/internal/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
	utils.SetAssertionSecret("test-secret-for-middleware-testing")
}

func newIdentityService(t *testing.T) (*services.IdentityService, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(&models.Member{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return services.NewIdentityService(db), db
}

func protectedRouter(identity *services.IdentityService, extra ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	handlers := append([]gin.HandlerFunc{AuthRequired(identity)}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		member := GetMember(c)
		c.JSON(200, gin.H{"email": member.Email, "state": member.ApprovalState})
	})
	router.GET("/protected", handlers...)
	return router
}

func TestAuthRequired_NoHeader(t *testing.T) {
	identity, _ := newIdentityService(t)
	router := protectedRouter(identity)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/protected", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, w.Code)
	}
}

func TestAuthRequired_InvalidFormat(t *testing.T) {
	identity, _ := newIdentityService(t)
	router := protectedRouter(identity)

	testCases := []string{
		"InvalidToken",
		"Basic token123",
		"Bearer",
	}

	for _, authHeader := range testCases {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/protected", nil)
		req.Header.Set("Authorization", authHeader)
		router.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("header %q: expected status %d, got %d", authHeader, http.StatusUnauthorized, w.Code)
		}
	}
}

func TestAuthRequired_InvalidAssertion(t *testing.T) {
	identity, _ := newIdentityService(t)
	router := protectedRouter(identity)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer invalid.jwt.token")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, w.Code)
	}
}

func TestAuthRequired_ValidAssertionResolvesMember(t *testing.T) {
	identity, db := newIdentityService(t)
	router := protectedRouter(identity)

	token, err := utils.SignAssertion("sub-1", "new@alumni.test", "New Member", time.Hour)
	if err != nil {
		t.Fatalf("SignAssertion: %v", err)
	}

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d (%s)", http.StatusOK, w.Code, w.Body.String())
	}

	// First authenticated request creates the pending record.
	var count int64
	db.Model(&models.Member{}).Count(&count)
	if count != 1 {
		t.Errorf("member count = %d, expected 1", count)
	}
}

func TestAuthRequired_IdentityConflict(t *testing.T) {
	identity, db := newIdentityService(t)
	router := protectedRouter(identity)

	bound := "sub-original"
	db.Create(&models.Member{
		SubjectID:     &bound,
		Email:         "taken@alumni.test",
		ApprovalState: models.StateApproved,
	})

	token, err := utils.SignAssertion("sub-other", "taken@alumni.test", "Imposter", time.Hour)
	if err != nil {
		t.Fatalf("SignAssertion: %v", err)
	}

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("expected status %d, got %d", http.StatusConflict, w.Code)
	}
}

func TestActiveMemberRequired_BlocksPending(t *testing.T) {
	identity, _ := newIdentityService(t)
	router := protectedRouter(identity, ActiveMemberRequired())

	// New identities start pending; authentication alone is not access.
	token, err := utils.SignAssertion("sub-1", "pending@alumni.test", "Pending", time.Hour)
	if err != nil {
		t.Fatalf("SignAssertion: %v", err)
	}

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("expected status %d, got %d", http.StatusForbidden, w.Code)
	}
}

func TestActiveMemberRequired_AllowsApproved(t *testing.T) {
	identity, db := newIdentityService(t)
	router := protectedRouter(identity, ActiveMemberRequired())

	subject := "sub-ok"
	db.Create(&models.Member{
		SubjectID:     &subject,
		Email:         "ok@alumni.test",
		ApprovalState: models.StateApproved,
	})

	token, err := utils.SignAssertion("sub-ok", "ok@alumni.test", "OK", time.Hour)
	if err != nil {
		t.Fatalf("SignAssertion: %v", err)
	}

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d (%s)", http.StatusOK, w.Code, w.Body.String())
	}
}

func TestAdminRequired_BlocksNonAdmin(t *testing.T) {
	identity, db := newIdentityService(t)
	router := protectedRouter(identity, AdminRequired())

	subject := "sub-alumni"
	db.Create(&models.Member{
		SubjectID:     &subject,
		Email:         "alumni@alumni.test",
		Role:          models.RoleAlumni,
		ApprovalState: models.StateApproved,
	})

	token, err := utils.SignAssertion("sub-alumni", "alumni@alumni.test", "Alum", time.Hour)
	if err != nil {
		t.Fatalf("SignAssertion: %v", err)
	}

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("expected status %d, got %d", http.StatusForbidden, w.Code)
	}
}

func TestAdminRequired_AllowsApprovedAdmin(t *testing.T) {
	identity, db := newIdentityService(t)
	router := protectedRouter(identity, AdminRequired())

	subject := "sub-admin"
	db.Create(&models.Member{
		SubjectID:     &subject,
		Email:         "admin@alumni.test",
		Role:          models.RoleAdmin,
		ApprovalState: models.StateApproved,
	})

	token, err := utils.SignAssertion("sub-admin", "admin@alumni.test", "Admin", time.Hour)
	if err != nil {
		t.Fatalf("SignAssertion: %v", err)
	}

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d (%s)", http.StatusOK, w.Code, w.Body.String())
	}
}
