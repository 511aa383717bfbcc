package medicine

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qtrack/clinic-api/internal/model"
	"github.com/qtrack/clinic-api/internal/repository"
	"github.com/qtrack/clinic-api/internal/service/medicine"
)

type fakeMedicineRepo struct {
	repository.MedicineRepository
	medicines map[uuid.UUID]*model.Medicine
	deleted   int
}

func newFakeMedicineRepo() *fakeMedicineRepo {
	return &fakeMedicineRepo{medicines: make(map[uuid.UUID]*model.Medicine)}
}

func (r *fakeMedicineRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.medicines[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.medicines, id)
	r.deleted++
	return nil
}

func newTestRouter(repo *fakeMedicineRepo) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(medicine.NewService(repo))
	r := gin.New()
	r.DELETE("/medicines/:id", h.Delete)
	return r
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	repo := newFakeMedicineRepo()
	m := &model.Medicine{Name: "Paracetamol"}
	m.ID = uuid.New()
	repo.medicines[m.ID] = m

	router := newTestRouter(repo)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/medicines/"+m.ID.String(), nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, repo.deleted)
	assert.Contains(t, w.Body.String(), "confirm=true")
}

func TestDeleteWithConfirmation(t *testing.T) {
	repo := newFakeMedicineRepo()
	m := &model.Medicine{Name: "Paracetamol"}
	m.ID = uuid.New()
	repo.medicines[m.ID] = m

	router := newTestRouter(repo)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/medicines/"+m.ID.String()+"?confirm=true", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, repo.deleted)
	assert.Empty(t, repo.medicines)
}
