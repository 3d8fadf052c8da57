package fixture

import (
	"github.com/seduc-pe/academic-hub/internal/domain/academic"
	"github.com/seduc-pe/academic-hub/internal/domain/shared"
)

// Dataset holds the reference data served by the provider.
type Dataset struct {
	Schools     []academic.School
	ClassGroups []academic.ClassGroup
	Subjects    []academic.Subject
	Students    []academic.Student
	Teachers    []academic.Teacher

	// Allocations maps a teacher to the schools whose class groups they teach.
	Allocations map[shared.ID][]shared.ID
}

// ─────────────────────────────────────────────────────────────────────────────
// Default data
// ─────────────────────────────────────────────────────────────────────────────

// Fixture identifiers used across tests and seeding.
const (
	SchoolJoaquimCanuto shared.ID = 1
	SchoolTancredoNeves shared.ID = 2
	SchoolPadreCicero   shared.ID = 3

	ClassInfantilA shared.ID = 101
	ClassInfantilB shared.ID = 102
	Class1A        shared.ID = 201
	Class3B        shared.ID = 202
	Class6A        shared.ID = 301
	Class9A        shared.ID = 302

	SubjectMathLower shared.ID = 11
	SubjectMathUpper shared.ID = 21
)

// DefaultDataset returns the demo network: one school per education level,
// two class groups per school and a short roster per class group.
func DefaultDataset() Dataset {
	d := Dataset{
		Schools: []academic.School{
			{ID: SchoolJoaquimCanuto, Name: "Escola Municipal Joaquim Canuto"},
			{ID: SchoolTancredoNeves, Name: "Escola Municipal Tancredo Neves"},
			{ID: SchoolPadreCicero, Name: "Escola Estadual Padre Cícero"},
		},
		ClassGroups: []academic.ClassGroup{
			{ID: ClassInfantilA, SchoolID: SchoolJoaquimCanuto, Code: "INF-VA", Name: "Infantil V A", EducationLevel: academic.LevelEarlyChildhood, Shift: academic.ShiftMorning, Active: true},
			{ID: ClassInfantilB, SchoolID: SchoolJoaquimCanuto, Code: "INF-VB", Name: "Infantil V B", EducationLevel: academic.LevelEarlyChildhood, Shift: academic.ShiftAfternoon, Active: true},
			{ID: Class1A, SchoolID: SchoolTancredoNeves, Code: "1A", Name: "1º Ano A", EducationLevel: academic.LevelLowerElementary, Shift: academic.ShiftMorning, Active: true},
			{ID: Class3B, SchoolID: SchoolTancredoNeves, Code: "3B", Name: "3º Ano B", EducationLevel: academic.LevelLowerElementary, Shift: academic.ShiftAfternoon, Active: true},
			{ID: Class6A, SchoolID: SchoolPadreCicero, Code: "6A", Name: "6º Ano A", EducationLevel: academic.LevelUpperElementary, Shift: academic.ShiftMorning, Active: true},
			{ID: Class9A, SchoolID: SchoolPadreCicero, Code: "9A", Name: "9º Ano A", EducationLevel: academic.LevelUpperElementary, Shift: academic.ShiftAfternoon, Active: true},
		},
		Subjects: []academic.Subject{
			{ID: 1, Name: "O eu, o outro e o nós", ApplicableLevel: academic.LevelEarlyChildhood},
			{ID: 2, Name: "Corpo, gestos e movimentos", ApplicableLevel: academic.LevelEarlyChildhood},
			{ID: 3, Name: "Traços, sons, cores e formas", ApplicableLevel: academic.LevelEarlyChildhood},
			{ID: 4, Name: "Escuta, fala, pensamento e imaginação", ApplicableLevel: academic.LevelEarlyChildhood},
			{ID: 10, Name: "Língua Portuguesa", ApplicableLevel: academic.LevelLowerElementary},
			{ID: SubjectMathLower, Name: "Matemática", ApplicableLevel: academic.LevelLowerElementary},
			{ID: 12, Name: "Ciências", ApplicableLevel: academic.LevelLowerElementary},
			{ID: 13, Name: "História", ApplicableLevel: academic.LevelLowerElementary},
			{ID: 14, Name: "Geografia", ApplicableLevel: academic.LevelLowerElementary},
			{ID: 20, Name: "Língua Portuguesa", ApplicableLevel: academic.LevelUpperElementary},
			{ID: SubjectMathUpper, Name: "Matemática", ApplicableLevel: academic.LevelUpperElementary},
			{ID: 22, Name: "Ciências", ApplicableLevel: academic.LevelUpperElementary},
			{ID: 23, Name: "História", ApplicableLevel: academic.LevelUpperElementary},
			{ID: 24, Name: "Geografia", ApplicableLevel: academic.LevelUpperElementary},
			{ID: 25, Name: "Língua Inglesa", ApplicableLevel: academic.LevelUpperElementary},
		},
		Teachers: []academic.Teacher{
			{ID: 1, Name: "Maria das Graças Silva", Active: true},
			{ID: 2, Name: "José Ribeiro Santos", Active: true},
			{ID: 3, Name: "Ana Paula Ferreira", Active: true},
		},
		Allocations: map[shared.ID][]shared.ID{
			1: {SchoolJoaquimCanuto},
			2: {SchoolTancredoNeves},
			3: {SchoolPadreCicero},
		},
	}

	rosters := map[shared.ID][]string{
		ClassInfantilA: {"Alice Moura", "Benício Lima", "Cecília Rocha", "Davi Lucas Alves"},
		ClassInfantilB: {"Eloá Cavalcanti", "Heitor Barbosa", "Isis Nogueira"},
		Class1A:        {"Ana Beatriz Souza", "Bruno Henrique Costa", "Carla Vitória Melo", "Daniel Araújo"},
		Class3B:        {"Enzo Gabriel Pereira", "Fernanda Lopes", "Gustavo Tavares"},
		Class6A:        {"Helena Cardoso", "Igor Monteiro", "Júlia Batista", "Kauã Farias", "Larissa Pinto"},
		Class9A:        {"Miguel Correia", "Natália Freitas", "Otávio Ramos"},
	}
	next := shared.ID(1001)
	for i, cg := range d.ClassGroups {
		for _, name := range rosters[cg.ID] {
			d.Students = append(d.Students, academic.Student{
				ID:               next,
				Name:             name,
				ClassGroupID:     cg.ID,
				EnrollmentStatus: academic.EnrollmentActive,
			})
			next++
		}
		d.ClassGroups[i].TotalStudents = len(rosters[cg.ID])
	}
	return d
}
