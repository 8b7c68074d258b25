package access

import (
	"github.com/ave4ge/findateammatebot/internal/domain/enums"
)

// Service resolves staff roles from the configured Telegram id lists.
// Anyone present in both lists holds the combined role.
type Service struct {
	admins    map[int64]struct{}
	verifiers map[int64]struct{}
	adminIDs  []int64
	verIDs    []int64
}

func NewService(adminIDs, verifierIDs []int64) *Service {
	s := &Service{
		admins:    make(map[int64]struct{}, len(adminIDs)),
		verifiers: make(map[int64]struct{}, len(verifierIDs)),
	}
	for _, id := range adminIDs {
		if id <= 0 {
			continue
		}
		if _, ok := s.admins[id]; ok {
			continue
		}
		s.admins[id] = struct{}{}
		s.adminIDs = append(s.adminIDs, id)
	}
	for _, id := range verifierIDs {
		if id <= 0 {
			continue
		}
		if _, ok := s.verifiers[id]; ok {
			continue
		}
		s.verifiers[id] = struct{}{}
		s.verIDs = append(s.verIDs, id)
	}
	return s
}

func (s *Service) ResolveRole(userID int64) enums.Role {
	_, admin := s.admins[userID]
	_, verifier := s.verifiers[userID]
	switch {
	case admin && verifier:
		return enums.RoleAdminVerifier
	case admin:
		return enums.RoleAdmin
	case verifier:
		return enums.RoleVerifier
	default:
		return enums.RoleUser
	}
}

func (s *Service) IsAdmin(userID int64) bool {
	role := s.ResolveRole(userID)
	return role == enums.RoleAdmin || role == enums.RoleAdminVerifier
}

func (s *Service) IsVerifier(userID int64) bool {
	role := s.ResolveRole(userID)
	return role == enums.RoleVerifier || role == enums.RoleAdminVerifier
}

func (s *Service) IsStaff(userID int64) bool {
	return s.ResolveRole(userID) != enums.RoleUser
}

func (s *Service) AdminIDs() []int64 {
	return append([]int64(nil), s.adminIDs...)
}

func (s *Service) VerifierIDs() []int64 {
	return append([]int64(nil), s.verIDs...)
}

// StaffIDs lists admins first, then verifiers that are not admins.
func (s *Service) StaffIDs() []int64 {
	out := s.AdminIDs()
	for _, id := range s.verIDs {
		if _, ok := s.admins[id]; ok {
			continue
		}
		out = append(out, id)
	}
	return out
}
