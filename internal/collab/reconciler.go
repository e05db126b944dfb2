package collab

import (
	"sync"
	"time"

	"github.com/LikhithMar14/code-paglu/internal/domain"
	"github.com/LikhithMar14/code-paglu/internal/protocol"
)

// publishFunc отдаёт закодированное сообщение транспорту. Проверку
// «мы connected» делает сессия на месте вызова; возврат false означает,
// что сообщение не ушло (это не ошибка).
type publishFunc func(msg any, reliable bool) bool

// Reconciler владеет локальной копией документа и решает, когда
// (пере)рассылать локальные правки.
//
// Политика согласования: применяется то, что пришло последним, без
// отбраковки по timestamp. Это осознанный слабоконсистентный выбор
// (last-applied-wins): глобальным часам не доверяем, конкурирующие правки
// в пределах одного RTT могут потеряться целиком.
type Reconciler struct {
	mu  sync.Mutex
	doc domain.DocumentState

	localIdentity string
	publish       publishFunc
	now           func() time.Time

	// suppressEcho гасит ровно одно уведомление «контент изменился»
	// от виджета редактора после применения удалённого апдейта. Без него
	// принятый апдейт уходил бы обратно в эфир бесконечным эхом.
	// Сбрасывается сразу после одного погашенного уведомления, не по
	// таймеру — иначе съедались бы настоящие следующие правки.
	suppressEcho bool

	onDocument func(domain.DocumentState)
}

func NewReconciler(localIdentity string, publish publishFunc) *Reconciler {
	return &Reconciler{
		doc: domain.DocumentState{
			Content:  domain.Placeholder(domain.LangJavaScript),
			Language: domain.LangJavaScript,
		},
		localIdentity: localIdentity,
		publish:       publish,
		now:           time.Now,
	}
}

// SetOnDocument регистрирует колбэк для перерисовки редактора после
// принятого удалённого апдейта.
func (rc *Reconciler) SetOnDocument(fn func(domain.DocumentState)) {
	rc.mu.Lock()
	rc.onDocument = fn
	rc.mu.Unlock()
}

// LocalEdit — уведомление редактора о локальной правке. Локальная копия
// обновляется сразу (нулевая задержка для собственных нажатий), затем
// полный снапшот уходит в эфир. Возвращает false, если уведомление было
// эхом только что применённого удалённого апдейта.
func (rc *Reconciler) LocalEdit(content string) bool {
	rc.mu.Lock()
	if rc.suppressEcho {
		rc.suppressEcho = false
		rc.mu.Unlock()
		return false
	}

	rc.doc.Content = content
	rc.doc.LastWriter = rc.localIdentity
	rc.doc.LastWriteAt = rc.now().UnixMilli()
	msg := rc.snapshotLocked()
	rc.mu.Unlock()

	rc.publish(msg, true)
	return true
}

// SetLanguage — локальное переключение языка: контент сбрасывается на
// плейсхолдер нового языка, наружу уходят два сообщения. language-change
// отдельным типом — иначе пир не отличит смену языка от набора нового
// текста; следом снапшот, чтобы пиры сошлись и по контенту.
func (rc *Reconciler) SetLanguage(lang domain.Language) error {
	if !lang.Supported() {
		return domain.ErrBadLanguage
	}

	rc.mu.Lock()
	if rc.doc.Language == lang {
		rc.mu.Unlock()
		return nil
	}
	ts := rc.now().UnixMilli()
	rc.doc.Language = lang
	rc.doc.Content = domain.Placeholder(lang)
	rc.doc.LastWriter = rc.localIdentity
	rc.doc.LastWriteAt = ts
	change := &protocol.LanguageChange{
		Header: protocol.Header{
			Type:      protocol.KindLanguageChange,
			Sender:    rc.localIdentity,
			Timestamp: ts,
		},
		Language: lang,
	}
	snap := rc.snapshotLocked()
	fn, doc := rc.onDocument, rc.doc
	rc.mu.Unlock()

	rc.publish(change, true)
	rc.publish(snap, true)
	if fn != nil {
		fn(doc)
	}
	return nil
}

// ApplyRemote применяет входящий code-update. Собственные сообщения,
// вернувшиеся с транспорта, пропускаются.
func (rc *Reconciler) ApplyRemote(msg *protocol.CodeUpdate) {
	if msg.Sender == rc.localIdentity {
		return
	}

	rc.mu.Lock()
	rc.suppressEcho = true
	rc.doc.Content = msg.Content
	if msg.Language != "" && msg.Language != rc.doc.Language {
		rc.doc.Language = msg.Language
	}
	rc.doc.LastWriter = msg.Sender
	rc.doc.LastWriteAt = msg.Timestamp
	fn, doc := rc.onDocument, rc.doc
	rc.mu.Unlock()

	if fn != nil {
		fn(doc)
	}
}

// ApplyLanguage применяет удалённую смену языка. Контент при этом НЕ
// сбрасывается: снапшот с новым плейсхолдером придёт отдельным code-update
// от автора переключения.
func (rc *Reconciler) ApplyLanguage(msg *protocol.LanguageChange) {
	if msg.Sender == rc.localIdentity {
		return
	}

	rc.mu.Lock()
	if msg.Language == "" || msg.Language == rc.doc.Language {
		rc.mu.Unlock()
		return
	}
	rc.doc.Language = msg.Language
	fn, doc := rc.onDocument, rc.doc
	rc.mu.Unlock()

	if fn != nil {
		fn(doc)
	}
}

// CatchUp перерассылает текущий снапшот для нового участника, если
// последняя запись наша. Это best-effort мера сходимости, протокола
// запрос/ответ здесь нет.
func (rc *Reconciler) CatchUp() {
	rc.mu.Lock()
	authority := rc.doc.LastWriter == rc.localIdentity
	msg := rc.snapshotLocked()
	rc.mu.Unlock()

	if authority {
		rc.publish(msg, true)
	}
}

func (rc *Reconciler) Document() domain.DocumentState {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.doc
}

func (rc *Reconciler) snapshotLocked() *protocol.CodeUpdate {
	return &protocol.CodeUpdate{
		Header: protocol.Header{
			Type:      protocol.KindCodeUpdate,
			Sender:    rc.localIdentity,
			Timestamp: rc.doc.LastWriteAt,
		},
		Content:  rc.doc.Content,
		Language: rc.doc.Language,
	}
}
