package credstore

type testStore map[string]string

func (m testStore) Set(n, s string) error { m[n] = s; return nil }

func (m testStore) Get(n string) (string, error) {
	s, ok := m[n]
	if !ok {
		return "", ErrNotFound
	}
	return s, nil
}

func (m testStore) Delete(n string) error {
	if _, ok := m[n]; !ok {
		return ErrNotFound
	}
	delete(m, n)
	return nil
}
