package models

// LocalWins сравнивает локальную и удаленную копии одной сущности
// и определяет победителя по правилу last-writer-wins:
// 1. Сначала сравниваются версии (большая выигрывает)
// 2. При равных версиях сравнивается lastEditedAt (позже отредактированная выигрывает)
// Возвращает true, если побеждает локальная копия.
// Это замена целиком, не пофайловый merge: проигравшая копия отбрасывается.
func LocalWins(local, remote Syncable) bool {
	if local.GetVersion() != remote.GetVersion() {
		return local.GetVersion() > remote.GetVersion()
	}
	// Версии равны - разрешаем по времени последнего изменения.
	// При полном равенстве оставляем локальную копию (push не требуется,
	// см. SameRevision).
	return local.GetLastEditedAt() >= remote.GetLastEditedAt()
}

// SameRevision возвращает true, если обе копии представляют одну и ту же
// ревизию сущности: равные версия и время изменения. Для таких сущностей
// начальная синхронизация не выполняет ни сетевых запросов, ни записей.
func SameRevision(a, b Syncable) bool {
	return a.GetVersion() == b.GetVersion() &&
		a.GetLastEditedAt() == b.GetLastEditedAt()
}
