package browser

// opFirstVisible reports whether the element Click and Fill would act on is visible.
const opFirstVisible = "first-visible"

// refAttr marks the element chosen by a "mark" query so CSS selectors can address it.
const refAttr = "data-verify-ref"

// resolverJS is evaluated in the page with a single query argument.
//
//	op "first-visible": true when the first match is visible
//	op "mark":          tags the first match with refAttr=q.ref and returns q.ref, or ""
//
// Names are compared after whitespace collapse. Role and label names match when
// they contain the wanted text, ignoring case; a prefix target must start with it
// exactly. Elements outside the accessibility tree (display:none,
// visibility:hidden, aria-hidden) are never matches. An element is visible when
// it also has a non-empty box.
const resolverJS = `function(q) {
	const norm = (s) => (s || '').replace(/\s+/g, ' ').trim();
	const roles = {
		heading: 'h1,h2,h3,h4,h5,h6,[role="heading"]',
		button: 'button,input[type="button"],input[type="submit"],input[type="reset"],[role="button"]',
		link: 'a[href],[role="link"]',
		textbox: 'input:not([type]),input[type="text"],input[type="email"],input[type="password"],input[type="search"],textarea,[role="textbox"]',
	};
	const textOf = (ids) => norm(ids.split(/\s+/).map((id) => {
		const n = document.getElementById(id);
		return n ? n.textContent : '';
	}).join(' '));
	const labelName = (el) => {
		const by = el.getAttribute('aria-labelledby');
		if (by) return textOf(by);
		const aria = el.getAttribute('aria-label');
		if (aria) return norm(aria);
		if (el.labels && el.labels.length) {
			return norm(Array.from(el.labels).map((l) => l.textContent).join(' '));
		}
		return '';
	};
	const accName = (el) => {
		const label = labelName(el);
		if (label) return label;
		if (el.tagName === 'INPUT') {
			if (['button', 'submit', 'reset'].includes(el.type)) return norm(el.value);
			return norm(el.getAttribute('placeholder') || el.title);
		}
		return norm(el.textContent);
	};
	const fold = (s) => norm(s).toLowerCase();
	const contains = (name, want) => fold(name).includes(fold(want));
	const exposed = (el) => el.getClientRects().length > 0 &&
		getComputedStyle(el).visibility !== 'hidden' &&
		!el.closest('[aria-hidden="true"]');
	const visible = (el) => {
		const r = el.getBoundingClientRect();
		return r.width > 0 && r.height > 0;
	};

	let matches;
	if (q.label) {
		matches = Array.from(document.querySelectorAll('input,textarea,select,[role="textbox"]'))
			.filter((el) => contains(labelName(el), q.label));
	} else {
		const want = norm(q.name);
		const sel = roles[q.role] || '[role="' + q.role + '"]';
		matches = Array.from(document.querySelectorAll(sel)).filter((el) => {
			const name = accName(el);
			return q.prefix ? name.startsWith(want) : contains(name, want);
		});
	}
	matches = matches.filter(exposed);

	switch (q.op) {
	case 'first-visible':
		return matches.length > 0 && visible(matches[0]);
	case 'mark':
		if (!matches.length) return '';
		matches[0].setAttribute('` + refAttr + `', q.ref);
		return q.ref;
	}
	return null;
}`
