package ingest

import "fmt"

// memCatalog is an in-memory Catalog used by the pipeline tests.
type memCatalog struct {
	nextID        int64
	areas         map[string]int64
	olympiadAreas map[string]bool
	schools       map[string]int64
	grades        map[string]int64
	levels        map[string]int64
	tutors        map[string]int64
	contestants   map[string]int64 // ci_document -> id
	records       map[int64]Contestant
	inscriptions  map[string]bool
}

func newMemCatalog() *memCatalog {
	return &memCatalog{
		areas:         map[string]int64{},
		olympiadAreas: map[string]bool{},
		schools:       map[string]int64{},
		grades:        map[string]int64{},
		levels:        map[string]int64{},
		tutors:        map[string]int64{},
		contestants:   map[string]int64{},
		records:       map[int64]Contestant{},
		inscriptions:  map[string]bool{},
	}
}

func (m *memCatalog) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memCatalog) addArea(name string) int64 {
	if id, ok := m.areas[name]; ok {
		return id
	}
	id := m.id()
	m.areas[name] = id
	return id
}

func (m *memCatalog) linkArea(olympiadID, areaID int64) {
	m.olympiadAreas[fmt.Sprintf("%d:%d", olympiadID, areaID)] = true
}

func (m *memCatalog) AreaByName(name string) (int64, bool, error) {
	id, ok := m.areas[name]
	return id, ok, nil
}

func (m *memCatalog) ResolveArea(name string) (int64, error) {
	return m.addArea(name), nil
}

func (m *memCatalog) AreaInOlympiad(olympiadID, areaID int64) (bool, error) {
	return m.olympiadAreas[fmt.Sprintf("%d:%d", olympiadID, areaID)], nil
}

func (m *memCatalog) resolve(cache map[string]int64, name string) (int64, error) {
	if id, ok := cache[name]; ok {
		return id, nil
	}
	id := m.id()
	cache[name] = id
	return id, nil
}

func (m *memCatalog) ResolveSchool(name string) (int64, error) { return m.resolve(m.schools, name) }
func (m *memCatalog) ResolveGrade(name string) (int64, error)  { return m.resolve(m.grades, name) }
func (m *memCatalog) ResolveLevel(name string) (int64, error)  { return m.resolve(m.levels, name) }

func (m *memCatalog) ResolveTutor(t Tutor) (int64, error) {
	return m.resolve(m.tutors, t.Phone+"\x00"+t.Email)
}

func (m *memCatalog) ContestantExists(document string) (bool, error) {
	_, ok := m.contestants[document]
	return ok, nil
}

func (m *memCatalog) EmailTaken(email, document string) (bool, error) {
	for _, c := range m.records {
		if c.Email == email && c.Document != document {
			return true, nil
		}
	}
	return false, nil
}

func (m *memCatalog) UpsertContestant(c Contestant) (int64, bool, error) {
	if id, ok := m.contestants[c.Document]; ok {
		m.records[id] = c
		return id, false, nil
	}
	id := m.id()
	m.contestants[c.Document] = id
	m.records[id] = c
	return id, true, nil
}

func (m *memCatalog) CreateInscription(ins Inscription) (bool, error) {
	key := fmt.Sprintf("%d:%d:%d", ins.ContestantID, ins.AreaID, ins.LevelID)
	if m.inscriptions[key] {
		return false, nil
	}
	m.inscriptions[key] = true
	return true, nil
}
