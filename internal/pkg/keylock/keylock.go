package keylock

import (
	"sort"
	"sync"
)

// Manager serializa escritores por chave: ajustes contra o mesmo registro de
// inventário são executados um por vez, enquanto registros diferentes
// prosseguem totalmente em paralelo — não há lock global.
//
// As entradas são contadas por referência e removidas do mapa quando o último
// interessado solta o lock, então o mapa não cresce com o histórico de chaves.
type Manager struct {
	mu    sync.Mutex
	locks map[string]*entry
}

type entry struct {
	mu   sync.Mutex
	refs int
}

// NewManager cria um gerenciador de locks por chave vazio.
func NewManager() *Manager {
	return &Manager{locks: make(map[string]*entry)}
}

// Lock bloqueia até adquirir exclusividade sobre a chave.
func (m *Manager) Lock(key string) {
	m.mu.Lock()
	e, ok := m.locks[key]
	if !ok {
		e = &entry{}
		m.locks[key] = e
	}
	e.refs++
	m.mu.Unlock()

	e.mu.Lock()
}

// Unlock libera a exclusividade sobre a chave.
func (m *Manager) Unlock(key string) {
	m.mu.Lock()
	e, ok := m.locks[key]
	if !ok {
		m.mu.Unlock()
		panic("keylock: Unlock de chave não adquirida: " + key)
	}
	e.refs--
	if e.refs == 0 {
		delete(m.locks, key)
	}
	m.mu.Unlock()

	e.mu.Unlock()
}

// LockAll adquire o conjunto de chaves em ordem determinística (deduplicado e
// ordenado), de modo que dois lotes concorrentes com registros sobrepostos
// nunca entrem em deadlock. Retorna a função que libera tudo, na ordem inversa.
func (m *Manager) LockAll(keys []string) (release func()) {
	distinct := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		distinct = append(distinct, k)
	}
	sort.Strings(distinct)

	for _, k := range distinct {
		m.Lock(k)
	}

	return func() {
		for i := len(distinct) - 1; i >= 0; i-- {
			m.Unlock(distinct[i])
		}
	}
}
