package rewrite

import "html/template"

const styleHTML = `<style id="fg-style">
.fg-banner {
    position: fixed;
    top: 0;
    left: 0;
    right: 0;
    background: #f59e0b;
    color: black;
    z-index: 99999;
    text-align: center;
    padding: 10px 30px;
    box-shadow: 0 2px 6px rgba(0, 0, 0, .15);
    font-family: 'Montserrat', sans-serif;
    font-size: 16px;
    font-style: normal;
    font-weight: 400;
    line-height: 25px;
    word-break: break-all;
}
@media (max-width: 766px) {
    .fg-banner { position: sticky; }
}
form.fg-disabled *:is(input, select, textarea, button) {
    pointer-events: none !important;
    opacity: .55 !important;
}
form.fg-disabled::after {
    content: 'Form disabled on non-production domain';
    display: block;
    font-size: 12px;
    color: #6b7280;
    margin-top: 6px;
}
</style>`

var bannerTemplate = template.Must(template.New("banner").Parse(`<div class="fg-banner" role="status">{{.Message}}<button class="close" type="button" aria-label="Close" style="position: absolute; top: 5px; right: 10px; background: none; border: none; font-size: 20px; cursor: pointer; color: inherit;" onclick="this.parentElement.style.display='none'; document.body.style.paddingTop=0; document.documentElement.style.scrollPaddingTop=0;"><svg xmlns="http://www.w3.org/2000/svg" width="14" height="14" viewBox="0 0 14 14" fill="none"><path d="M1.4 14L0 12.6L5.6 7L0 1.4L1.4 0L7 5.6L12.6 0L14 1.4L8.4 7L14 12.6L12.6 14L7 8.4L1.4 14Z" fill="#4A4A4A"/></svg></button></div>`))

// The script repeats the form policy for forms added after page load and
// binds the submit blocker once per form.
var scriptTemplate = template.Must(template.New("script").Parse(`<script id="fg-script">
(function() {
    try {
        var messageText = {{.Message}};
        var disabledCF7Forms = {{.DisabledForms}};

        function isSearchForm(f) {
            return f.getAttribute('role') === 'search' ||
                f.querySelector('input[type="search"]') ||
                f.querySelector('input[name="s"]');
        }

        function shouldDisable(f) {
            if (isSearchForm(f)) {
                return false;
            }
            var isCF7Form = f.classList.contains('wpcf7-form') || f.querySelector('.wpcf7-form');
            if (!disabledCF7Forms || disabledCF7Forms.length === 0) {
                return true;
            }
            if (!isCF7Form) {
                return false;
            }
            var idInput = f.querySelector('input[name="_wpcf7"]');
            if (!idInput) {
                return false;
            }
            return disabledCF7Forms.indexOf(parseInt(idInput.value, 10)) !== -1;
        }

        window.formGuardDisableAllForms = function() {
            document.querySelectorAll('form').forEach(function(f) {
                if (f.getAttribute('data-fg-bound') === '1') {
                    return;
                }
                if (!f.classList.contains('fg-disabled') && !shouldDisable(f)) {
                    return;
                }
                f.setAttribute('data-fg-bound', '1');
                f.classList.add('fg-disabled');
                f.querySelectorAll('input, select, textarea, button').forEach(function(el) {
                    try { el.setAttribute('disabled', 'disabled'); } catch (e) {}
                });
                f.addEventListener('submit', function(ev) {
                    ev.preventDefault();
                    ev.stopImmediatePropagation();
                    alert(messageText);
                    return false;
                }, true);
            });
        };

        if (document.readyState === 'loading') {
            document.addEventListener('DOMContentLoaded', window.formGuardDisableAllForms);
        } else {
            window.formGuardDisableAllForms();
        }

        if (typeof MutationObserver !== 'undefined') {
            new MutationObserver(function(mutations) {
                for (var m = 0; m < mutations.length; m++) {
                    var added = mutations[m].addedNodes;
                    for (var i = 0; i < added.length; i++) {
                        var node = added[i];
                        if (node.nodeType === 1 && (node.tagName === 'FORM' || (node.querySelector && node.querySelector('form')))) {
                            window.formGuardDisableAllForms();
                            return;
                        }
                    }
                }
            }).observe(document.documentElement, {childList: true, subtree: true});
        }
    } catch (e) {}
})();
</script>`))

// noticeTemplate is served instead of forwarding a plain form post.
var noticeTemplate = template.Must(template.New("notice").Parse(`<!DOCTYPE html>
<html lang="{{.Lang}}">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Form disabled</title>
` + styleHTML + `
</head>
<body>
<div class="fg-banner" role="status">{{.Message}}</div>
<main style="max-width: 640px; margin: 96px auto; font-family: sans-serif; text-align: center;">
<p>{{.Message}}</p>
{{if .Back}}<p><a href="{{.Back}}">&larr; Back</a></p>{{end}}
</main>
</body>
</html>
`))
