// Package session содержит контекст пользователя: активный профиль,
// меню по роли и явное переключение профиля. Контекст передаётся
// компонентам явно, глобального состояния нет.
package session

import (
	"strings"
	"sync"
	"time"

	"github.com/seduc-pe/academic-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROFILE
// ══════════════════════════════════════════════════════════════════════════════

// Role - роль пользователя.
type Role string

const (
	// RoleMaster - секретариат, видит всю сеть.
	RoleMaster Role = "master"
	// RoleTeacher - учитель, работает со своими классами.
	RoleTeacher Role = "teacher"
	// RoleVisitor - без доступа к разделам.
	RoleVisitor Role = "visitor"
)

// Profile - активный профиль сессии.
type Profile struct {
	Key         string    `json:"key"`
	Role        Role      `json:"role"`
	DisplayName string    `json:"display_name"`
	TeacherID   shared.ID `json:"teacher_id,omitempty"`
}

// Предустановленные профили демонстрационного переключателя.
var (
	ProfileMaster  = Profile{Key: "master", Role: RoleMaster, DisplayName: "Secretaria"}
	ProfileVisitor = Profile{Key: "visitor", Role: RoleVisitor, DisplayName: "Visitante"}

	ProfileTeacherEarlyChildhood  = Profile{Key: "teacher_early_childhood", Role: RoleTeacher, DisplayName: "Professor(a) Infantil", TeacherID: 1}
	ProfileTeacherLowerElementary = Profile{Key: "teacher_lower_elementary", Role: RoleTeacher, DisplayName: "Professor(a) Anos Iniciais", TeacherID: 2}
	ProfileTeacherUpperElementary = Profile{Key: "teacher_upper_elementary", Role: RoleTeacher, DisplayName: "Professor(a) Anos Finais", TeacherID: 3}
)

// Profiles возвращает все предустановленные профили.
func Profiles() []Profile {
	return []Profile{
		ProfileMaster,
		ProfileTeacherEarlyChildhood,
		ProfileTeacherLowerElementary,
		ProfileTeacherUpperElementary,
		ProfileVisitor,
	}
}

// ParseProfile находит профиль по ключу; принимает и португальские имена.
func ParseProfile(key string) (Profile, error) {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "master", "secretaria":
		return ProfileMaster, nil
	case "teacher_early_childhood", "professorinfantil":
		return ProfileTeacherEarlyChildhood, nil
	case "teacher_lower_elementary", "professoriniciais", "teacher", "professor":
		return ProfileTeacherLowerElementary, nil
	case "teacher_upper_elementary", "professorfinais":
		return ProfileTeacherUpperElementary, nil
	case "visitor", "visitante":
		return ProfileVisitor, nil
	default:
		return Profile{}, shared.ErrUnknownProfile
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// MENU
// ══════════════════════════════════════════════════════════════════════════════

// MenuItem - пункт меню.
type MenuItem struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Path  string `json:"path"`
}

var (
	masterMenu = []MenuItem{
		{Key: "dashboard", Label: "Dashboard", Path: "/"},
		{Key: "enrollment", Label: "Matricular Aluno", Path: "/alunos/novo"},
		{Key: "students", Label: "Lista de Alunos", Path: "/alunos"},
		{Key: "teachers", Label: "Professores", Path: "/professores"},
		{Key: "subjects", Label: "Disciplinas", Path: "/disciplinas"},
		{Key: "classes", Label: "Turmas", Path: "/turmas"},
		{Key: "reports", Label: "Relatórios", Path: "/relatorios"},
		{Key: "calendar", Label: "Calendário Escolar", Path: "/calendario"},
	}
	teacherMenu = []MenuItem{
		{Key: "dashboard", Label: "Dashboard", Path: "/professor/dashboard"},
		{Key: "diary", Label: "Diário de Classe", Path: "/professor/diario"},
		{Key: "evaluation", Label: "Avaliação", Path: "/professor/avaliacao"},
		{Key: "frequency", Label: "Folha de Frequência", Path: "/professor/frequencia"},
	}
)

// Menu возвращает пункты меню для роли. Посетитель не видит ничего.
func Menu(role Role) []MenuItem {
	var src []MenuItem
	switch role {
	case RoleMaster:
		src = masterMenu
	case RoleTeacher:
		src = teacherMenu
	default:
		return []MenuItem{}
	}
	out := make([]MenuItem, len(src))
	copy(out, src)
	return out
}

// Allows проверяет, есть ли раздел в меню роли.
func Allows(role Role, key string) bool {
	for _, item := range Menu(role) {
		if item.Key == key {
			return true
		}
	}
	return false
}

// ══════════════════════════════════════════════════════════════════════════════
// SESSION
// ══════════════════════════════════════════════════════════════════════════════

// Session - контекст пользователя. Профиль меняется только через SwitchProfile.
type Session struct {
	mu        sync.RWMutex
	id        string
	profile   Profile
	createdAt time.Time
}

// New создаёт сессию с начальным профилем.
func New(id string, profile Profile) *Session {
	return &Session{id: id, profile: profile, createdAt: time.Now().UTC()}
}

// ID возвращает идентификатор сессии.
func (s *Session) ID() string { return s.id }

// CreatedAt возвращает время создания сессии.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// Profile возвращает текущий профиль.
func (s *Session) Profile() Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile
}

// Menu возвращает меню текущего профиля.
func (s *Session) Menu() []MenuItem {
	return Menu(s.Profile().Role)
}

// SwitchProfile переключает профиль и возвращает событие о смене.
func (s *Session) SwitchProfile(p Profile) shared.ProfileSwitchedEvent {
	s.mu.Lock()
	prev := s.profile
	s.profile = p
	s.mu.Unlock()
	return shared.NewProfileSwitchedEvent(s.id, prev.Key, p.Key)
}
