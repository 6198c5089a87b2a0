package ports

import "context"

// UnitOfWork управляет границами транзакций хранилища.
//
// Execute начинает транзакцию, внедряет её в context и выполняет fn:
// nil => COMMIT, ошибка => ROLLBACK + ошибка наверх, panic => ROLLBACK +
// re-panic. Все repository вызовы внутри fn обязаны использовать
// переданный context.
//
// Каждый запрос занимает ровно одно соединение на время транзакции.
type UnitOfWork interface {
	Execute(ctx context.Context, fn func(txCtx context.Context) error) error
}
