package catalog

import (
	"context"
	"strings"

	"github.com/labbuddy/platform/pkg/common/errs"
	"github.com/labbuddy/platform/pkg/common/models"
	"github.com/labbuddy/platform/pkg/identity"
)

type Service struct {
	repo  *Repository
	users *identity.Repository
}

func NewService(repo *Repository, users *identity.Repository) *Service {
	return &Service{repo: repo, users: users}
}

func (s *Service) CreateLab(ctx context.Context, req models.CreateLabRequest) (models.Lab, error) {
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.URL) == "" {
		return models.Lab{}, errs.Validation("name and url are required")
	}
	if _, err := s.users.GetByID(ctx, req.AdminUserID); err != nil {
		if errs.KindOf(err) == errs.KindNotFound {
			return models.Lab{}, errs.NotFound("admin user not found")
		}
		return models.Lab{}, err
	}
	req.URL = strings.ToLower(strings.TrimSpace(req.URL))
	return s.repo.CreateLab(ctx, req)
}

func (s *Service) GetLab(ctx context.Context, id uint) (models.Lab, error) {
	return s.repo.GetLab(ctx, id)
}

func (s *Service) ListLabs(ctx context.Context, skip, limit int) ([]models.Lab, error) {
	return s.repo.ListLabs(ctx, skip, limit)
}

func (s *Service) UpdateLab(ctx context.Context, id uint, req models.UpdateLabRequest) (models.Lab, error) {
	if req.URL != nil {
		url := strings.ToLower(strings.TrimSpace(*req.URL))
		req.URL = &url
	}
	return s.repo.UpdateLab(ctx, id, req)
}

func (s *Service) DeactivateLab(ctx context.Context, id uint) error {
	return s.repo.DeactivateLab(ctx, id)
}

func (s *Service) CreateHospital(ctx context.Context, req models.CreateHospitalRequest) (models.Hospital, error) {
	if strings.TrimSpace(req.Name) == "" {
		return models.Hospital{}, errs.Validation("name is required")
	}
	if _, err := s.repo.GetLab(ctx, req.LabID); err != nil {
		return models.Hospital{}, err
	}
	return s.repo.CreateHospital(ctx, req)
}

func (s *Service) GetHospital(ctx context.Context, id uint) (models.Hospital, error) {
	return s.repo.GetHospital(ctx, id)
}

func (s *Service) ListHospitals(ctx context.Context, labID *uint, skip, limit int) ([]models.Hospital, error) {
	return s.repo.ListHospitals(ctx, labID, skip, limit)
}

func (s *Service) UpdateHospital(ctx context.Context, id uint, req models.UpdateHospitalRequest) (models.Hospital, error) {
	return s.repo.UpdateHospital(ctx, id, req)
}

func (s *Service) DeactivateHospital(ctx context.Context, id uint) error {
	return s.repo.DeactivateHospital(ctx, id)
}

func (s *Service) CreatePatient(ctx context.Context, req models.CreatePatientRequest) (models.Patient, error) {
	if strings.TrimSpace(req.Name) == "" {
		return models.Patient{}, errs.Validation("name is required")
	}
	if !req.Gender.Valid() {
		return models.Patient{}, errs.Validation("unknown gender %q", req.Gender)
	}
	if _, err := s.repo.GetLab(ctx, req.LabID); err != nil {
		return models.Patient{}, err
	}
	if req.HospitalID != nil {
		hospital, err := s.repo.GetHospital(ctx, *req.HospitalID)
		if err != nil {
			return models.Patient{}, err
		}
		if hospital.LabID != req.LabID {
			return models.Patient{}, errs.Validation("hospital does not belong to the lab")
		}
	}
	return s.repo.CreatePatient(ctx, req)
}

func (s *Service) GetPatient(ctx context.Context, id uint) (models.Patient, error) {
	return s.repo.GetPatient(ctx, id)
}

func (s *Service) ListPatients(ctx context.Context, labID, hospitalID *uint, skip, limit int) ([]models.Patient, error) {
	return s.repo.ListPatients(ctx, labID, hospitalID, skip, limit)
}

func (s *Service) UpdatePatient(ctx context.Context, id uint, req models.UpdatePatientRequest) (models.Patient, error) {
	if req.HospitalID != nil {
		patient, err := s.repo.GetPatient(ctx, id)
		if err != nil {
			return models.Patient{}, err
		}
		hospital, err := s.repo.GetHospital(ctx, *req.HospitalID)
		if err != nil {
			return models.Patient{}, err
		}
		if hospital.LabID != patient.LabID {
			return models.Patient{}, errs.Validation("hospital does not belong to the lab")
		}
	}
	return s.repo.UpdatePatient(ctx, id, req)
}

func (s *Service) DeletePatient(ctx context.Context, id uint) error {
	return s.repo.DeletePatient(ctx, id)
}

func (s *Service) CreateTestMaster(ctx context.Context, req models.CreateTestMasterRequest) (models.TestMaster, error) {
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.SampleType) == "" {
		return models.TestMaster{}, errs.Validation("name and sample_type are required")
	}
	return s.repo.CreateTestMaster(ctx, req)
}

func (s *Service) GetTestMaster(ctx context.Context, id uint) (models.TestMaster, error) {
	return s.repo.GetTestMaster(ctx, id)
}

func (s *Service) ListTestMasters(ctx context.Context, skip, limit int) ([]models.TestMaster, error) {
	return s.repo.ListTestMasters(ctx, skip, limit)
}

func (s *Service) CreateLabTest(ctx context.Context, req models.CreateLabTestRequest) (models.LabTest, error) {
	if _, err := s.repo.GetLab(ctx, req.LabID); err != nil {
		return models.LabTest{}, err
	}
	if _, err := s.repo.GetTestMaster(ctx, req.TestID); err != nil {
		return models.LabTest{}, err
	}
	return s.repo.CreateLabTest(ctx, req)
}

func (s *Service) GetLabTest(ctx context.Context, id uint) (models.LabTest, error) {
	return s.repo.GetLabTest(ctx, id)
}

func (s *Service) ListLabTests(ctx context.Context, labID *uint, skip, limit int) ([]models.LabTest, error) {
	return s.repo.ListLabTests(ctx, labID, skip, limit)
}

func (s *Service) UpdateLabTest(ctx context.Context, id uint, req models.UpdateLabTestRequest) (models.LabTest, error) {
	return s.repo.UpdateLabTest(ctx, id, req)
}
